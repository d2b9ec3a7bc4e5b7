package service

import (
	"context"
	"fmt"

	"github.com/ahmednasr/bug-triage/internal/artifact"
	"github.com/ahmednasr/bug-triage/internal/classifier"
	"github.com/ahmednasr/bug-triage/internal/models"
)

// assigneeShortlist is how many assignee candidates are returned.
const assigneeShortlist = 3

// PredictionSet is everything the three classifiers say about one text.
type PredictionSet struct {
	Embedding []float32
	Category  models.Prediction
	Severity  models.Prediction
	Assignees []string // highest probability first
}

// TopAssignee returns the first-ranked assignee, or "" when there is none.
func (p PredictionSet) TopAssignee() string {
	if len(p.Assignees) == 0 {
		return ""
	}
	return p.Assignees[0]
}

// Predictor embeds a text once and feeds the vector to the category,
// severity and assignee models. It holds no mutable state.
type Predictor struct {
	embedder Embedder
	models   artifact.Models
}

// NewPredictor wires the embedding provider and the loaded models.
func NewPredictor(embedder Embedder, m artifact.Models) (*Predictor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("predictor: embedder is required")
	}
	if m.Category == nil || m.Severity == nil || m.Assignee == nil {
		return nil, fmt.Errorf("predictor: category, severity and assignee models are required")
	}
	return &Predictor{embedder: embedder, models: m}, nil
}

// Version returns the model version being served.
func (p *Predictor) Version() string { return p.models.Version }

// PredictAll runs the embedding and all three classifiers. Any failure is an
// InferenceError; no default labels are substituted.
func (p *Predictor) PredictAll(ctx context.Context, text string) (PredictionSet, error) {
	emb, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return PredictionSet{}, &InferenceError{Stage: "embed", Err: err}
	}
	if len(emb) == 0 {
		return PredictionSet{}, &InferenceError{Stage: "embed", Err: fmt.Errorf("empty embedding")}
	}

	category, err := top1(ctx, "category", p.models.Category, emb)
	if err != nil {
		return PredictionSet{}, err
	}
	severity, err := top1(ctx, "severity", p.models.Severity, emb)
	if err != nil {
		return PredictionSet{}, err
	}

	dist, err := proba(ctx, "assignee", p.models.Assignee, emb)
	if err != nil {
		return PredictionSet{}, err
	}
	labels := p.models.Assignee.Labels()
	ranked := dist.TopK(assigneeShortlist)
	assignees := make([]string, len(ranked))
	for i, idx := range ranked {
		assignees[i] = labels[idx]
	}

	return PredictionSet{
		Embedding: emb,
		Category:  category,
		Severity:  severity,
		Assignees: assignees,
	}, nil
}

func top1(ctx context.Context, stage string, c classifier.Classifier, emb []float32) (models.Prediction, error) {
	dist, err := proba(ctx, stage, c, emb)
	if err != nil {
		return models.Prediction{}, err
	}
	idx, p := dist.Argmax()
	return models.Prediction{Label: c.Labels()[idx], Confidence: p}, nil
}

// proba runs one classifier and rejects anything that is not a proper
// distribution over its labels.
func proba(ctx context.Context, stage string, c classifier.Classifier, emb []float32) (classifier.Distribution, error) {
	dist, err := c.PredictProba(ctx, emb)
	if err != nil {
		return nil, &InferenceError{Stage: stage, Err: err}
	}
	if err := dist.Validate(len(c.Labels())); err != nil {
		return nil, &InferenceError{Stage: stage, Err: err}
	}
	return dist, nil
}
