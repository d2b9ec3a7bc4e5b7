package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const defaultLocalModel = "distilbert-base-uncased"

// localEmbedScript mean-pools the last hidden state over the attention mask,
// with the same truncation the classifiers were trained with. Text arrives
// on stdin so no escaping is needed.
const localEmbedScript = `
import sys, json
import torch
from transformers import AutoTokenizer, AutoModel

name = sys.argv[1]
tok = AutoTokenizer.from_pretrained(name)
model = AutoModel.from_pretrained(name)
text = sys.stdin.read()
inputs = tok(text, return_tensors="pt", truncation=True, padding=True, max_length=160)
with torch.no_grad():
    out = model(**inputs).last_hidden_state.mean(dim=1)
json.dump(out.squeeze(0).tolist(), sys.stdout)
`

// LocalEmbedder runs a Hugging Face transformer through python3.
type LocalEmbedder struct {
	model  string
	python string
}

// NewLocalEmbedder creates a new embedder using a local transformer model.
func NewLocalEmbedder(model string) (*LocalEmbedder, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("local embedder: model name is required")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		return nil, fmt.Errorf("local embedder: %w", err)
	}
	return &LocalEmbedder{model: model, python: python}, nil
}

// Embed generates an embedding vector for a single input text.
func (l *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "generating local embedding", "model", l.model, "chars", len(text))

	cmd := exec.CommandContext(ctx, l.python, "-c", localEmbedScript, l.model)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.ErrorContext(ctx, "local embedding script failed", "err", err, "stderr", tail(stderr.String(), 512))
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	return parseVector(stdout.Bytes())
}

// Close is a no-op for local embedder.
func (l *LocalEmbedder) Close() error {
	return nil
}

// parseVector decodes a JSON array of numbers into a non-empty float32 slice.
func parseVector(raw []byte) ([]float32, error) {
	var values []float32
	if err := json.Unmarshal(bytes.TrimSpace(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to parse embedding output: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding output is empty")
	}
	return values, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
