package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestHashingEmbedder(t *testing.T) {
	h := NewHashingEmbedder(64)
	ctx := context.Background()

	a, err := h.Embed(ctx, "login page crashes on submit")
	require.NoError(t, err)
	require.Len(t, a, 64)

	b, err := h.Embed(ctx, "login page crashes on submit")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := h.Embed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 64), empty)
	assert.NoError(t, h.Close())
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	e, err := NewEmbedder(ctx, "hashing:16", EmbedderOptions{})
	require.NoError(t, err)
	vec, err := e.Embed(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, vec, 16)

	e, err = NewEmbedder(ctx, "hashing", EmbedderOptions{})
	require.NoError(t, err)
	vec, err = e.Embed(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, vec, defaultHashingDim)

	_, err = NewEmbedder(ctx, "hashing:-3", EmbedderOptions{})
	assert.ErrorContains(t, err, "invalid hashing dimension")

	_, err = NewEmbedder(ctx, "openai:ada", EmbedderOptions{})
	assert.ErrorContains(t, err, "unknown embedding provider")

	_, err = NewEmbedder(ctx, "vertex:text-embedding-005", EmbedderOptions{})
	assert.ErrorContains(t, err, "project id is required")
}

func TestParseVector(t *testing.T) {
	got, err := parseVector([]byte(" [0.5, -1, 2e-3]\n"))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 0.002}, got)

	_, err = parseVector([]byte("[]"))
	assert.ErrorContains(t, err, "empty")

	_, err = parseVector([]byte("Traceback (most recent call last):"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "cde", tail("abcde", 3))
}

type fakePredictionClient struct {
	resp   *aiplatformpb.PredictResponse
	err    error
	gotReq *aiplatformpb.PredictRequest
	closed bool
}

func (f *fakePredictionClient) Predict(_ context.Context, req *aiplatformpb.PredictRequest, _ ...gax.CallOption) (*aiplatformpb.PredictResponse, error) {
	f.gotReq = req
	return f.resp, f.err
}

func (f *fakePredictionClient) Close() error {
	f.closed = true
	return nil
}

func embeddingResponse(t *testing.T, values ...any) *aiplatformpb.PredictResponse {
	t.Helper()
	pred, err := structpb.NewValue(map[string]any{
		"embeddings": map[string]any{"values": values, "statistics": map[string]any{"token_count": 3}},
	})
	require.NoError(t, err)
	return &aiplatformpb.PredictResponse{Predictions: []*structpb.Value{pred}}
}

func TestVertexEmbedder_Embed(t *testing.T) {
	client := &fakePredictionClient{resp: embeddingResponse(t, 0.25, -0.5, 1.0)}
	v := &VertexEmbedder{client: client, modelName: "projects/p/locations/l/publishers/google/models/m"}

	got, err := v.Embed(context.Background(), "login crash")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, got)

	require.NotNil(t, client.gotReq)
	assert.Equal(t, "projects/p/locations/l/publishers/google/models/m", client.gotReq.Endpoint)
	fields := client.gotReq.Instances[0].GetStructValue().GetFields()
	assert.Equal(t, "login crash", fields["content"].GetStringValue())
	assert.Equal(t, "CLASSIFICATION", fields["task_type"].GetStringValue())

	require.NoError(t, v.Close())
	assert.True(t, client.closed)
}

func TestVertexEmbedder_Errors(t *testing.T) {
	tests := map[string]struct {
		client *fakePredictionClient
		want   string
	}{
		"rpc error":      {client: &fakePredictionClient{err: errors.New("unavailable")}, want: "failed to get prediction"},
		"no predictions": {client: &fakePredictionClient{resp: &aiplatformpb.PredictResponse{}}, want: "no predictions"},
		"no values":      {client: &fakePredictionClient{resp: embeddingResponse(t)}, want: "no embedding values"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v := &VertexEmbedder{client: tt.client, modelName: "m"}
			_, err := v.Embed(context.Background(), "x")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
