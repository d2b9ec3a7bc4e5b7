package classifier

import (
	"context"
	"fmt"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/structpb"
)

// PredictionClient is the subset of aiplatform.PredictionClient used here.
type PredictionClient interface {
	Predict(ctx context.Context, req *aiplatformpb.PredictRequest, opts ...gax.CallOption) (*aiplatformpb.PredictResponse, error)
}

// Vertex scores embeddings with a model deployed on a Vertex AI endpoint.
// The endpoint must return one probability vector per instance, either as a
// plain list or as a struct with a "scores" or "probabilities" list.
type Vertex struct {
	client   PredictionClient
	endpoint string
	labels   []string
}

// NewVertex binds a deployed endpoint to the label set it was trained on.
// endpoint is the full resource name
// (projects/<p>/locations/<l>/endpoints/<id>).
func NewVertex(client PredictionClient, endpoint string, labels []string) (*Vertex, error) {
	if client == nil {
		return nil, fmt.Errorf("vertex classifier: nil prediction client")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("vertex classifier: endpoint is required")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("vertex classifier: no labels")
	}
	return &Vertex{client: client, endpoint: endpoint, labels: labels}, nil
}

// Labels returns the label set in index order.
func (v *Vertex) Labels() []string { return v.labels }

// PredictProba sends x as a single instance and reads back the distribution.
func (v *Vertex) PredictProba(ctx context.Context, x []float32) (Distribution, error) {
	values := make([]*structpb.Value, len(x))
	for i, f := range x {
		values[i] = structpb.NewNumberValue(float64(f))
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.endpoint,
		Instances: []*structpb.Value{structpb.NewListValue(&structpb.ListValue{Values: values})},
	})
	if err != nil {
		return nil, fmt.Errorf("vertex classifier: predict: %w", err)
	}
	if len(resp.GetPredictions()) == 0 {
		return nil, fmt.Errorf("vertex classifier: no predictions returned")
	}

	list := resp.GetPredictions()[0].GetListValue()
	if list == nil {
		fields := resp.GetPredictions()[0].GetStructValue().GetFields()
		for _, key := range []string{"scores", "probabilities"} {
			if f, ok := fields[key]; ok {
				list = f.GetListValue()
				break
			}
		}
	}
	if list == nil {
		return nil, fmt.Errorf("vertex classifier: prediction carries no probability list")
	}

	dist := make(Distribution, len(list.GetValues()))
	for i, p := range list.GetValues() {
		dist[i] = p.GetNumberValue()
	}
	return dist, nil
}
