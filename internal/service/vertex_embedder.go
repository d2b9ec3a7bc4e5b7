package service

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultVertexModel = "text-embedding-005"

// predictionClient is the subset of aiplatform.PredictionClient we call.
type predictionClient interface {
	Predict(ctx context.Context, req *aiplatformpb.PredictRequest, opts ...gax.CallOption) (*aiplatformpb.PredictResponse, error)
	Close() error
}

// VertexEmbedder uses a Google publisher embedding model (text-embedding-005
// by default) to generate embeddings.
type VertexEmbedder struct {
	client    predictionClient
	modelName string
}

// NewVertexEmbedder creates a new embedder against the regional Vertex AI
// endpoint. Credentials come from opts or Application Default Credentials.
func NewVertexEmbedder(ctx context.Context, projectID, location, model string, opts ...option.ClientOption) (*VertexEmbedder, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertex embedder: project id is required")
	}
	if location == "" {
		location = "us-central1"
	}

	opts = append([]option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)),
	}, opts...)
	client, err := aiplatform.NewPredictionClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	modelName := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, location, model)
	return &VertexEmbedder{client: client, modelName: modelName}, nil
}

// Embed generates an embedding vector for the input text using
// task_type = "CLASSIFICATION", the task the downstream classifiers serve.
func (v *VertexEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	instance, err := structpb.NewStruct(map[string]interface{}{
		"content":   text,
		"task_type": "CLASSIFICATION",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	req := &aiplatformpb.PredictRequest{
		Endpoint:  v.modelName,
		Instances: []*structpb.Value{structpb.NewStructValue(instance)},
	}

	resp, err := v.client.Predict(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions returned")
	}

	prediction := resp.Predictions[0].GetStructValue()
	embeddings := prediction.GetFields()["embeddings"].GetStructValue()
	values := embeddings.GetFields()["values"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, fmt.Errorf("prediction carries no embedding values")
	}

	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v.GetNumberValue())
	}

	return result, nil
}

// Close releases the Vertex AI client resources.
func (v *VertexEmbedder) Close() error {
	return v.client.Close()
}
