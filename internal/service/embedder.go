package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
)

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed converts a normalised text into a fixed-length vector.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Close releases any client or process resources.
	Close() error
}

// EmbedderOptions carries what the remote backends need to authenticate.
type EmbedderOptions struct {
	ProjectID     string
	Location      string
	ClientOptions []option.ClientOption
}

// NewEmbedder builds the backend named by provider:
//
//	vertex:<publisher-model>   Vertex AI text embedding model
//	local:<hf-model>           Hugging Face transformer run in a python3 subprocess
//	hashing:<dim>              deterministic feature hashing, no model needed
//
// The part after the colon is optional and falls back to a default.
func NewEmbedder(ctx context.Context, provider string, opts EmbedderOptions) (Embedder, error) {
	kind, arg, _ := strings.Cut(provider, ":")
	switch kind {
	case "vertex":
		if arg == "" {
			arg = defaultVertexModel
		}
		return NewVertexEmbedder(ctx, opts.ProjectID, opts.Location, arg, opts.ClientOptions...)
	case "local":
		if arg == "" {
			arg = defaultLocalModel
		}
		return NewLocalEmbedder(arg)
	case "hashing":
		dim := defaultHashingDim
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid hashing dimension %q", arg)
			}
			dim = n
		}
		return NewHashingEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
