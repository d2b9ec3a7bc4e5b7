package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ahmednasr/bug-triage/internal/classifier"
	"github.com/ahmednasr/bug-triage/internal/models"
)

// ManifestName is the artifact describing every other artifact of a version.
const ManifestName = "manifest.json"

// ModelSpec points at one classifier artifact.
type ModelSpec struct {
	Kind   string   `json:"kind"`
	Path   string   `json:"path"`
	Labels []string `json:"labels"`
}

// Manifest is the versioned index of a model directory.
//
//	{
//	  "version": "v1.0.0",
//	  "category": {"kind": "tree_ensemble", "path": "category_gbt.json", "labels": [...]},
//	  "severity": {"kind": "linear", "path": "severity_logreg.json", "labels": [...]},
//	  "assignee": {"kind": "gaussian_nb", "path": "assignee_nb.json", "labels": [...]},
//	  "history":  "history_embeddings.json"
//	}
type Manifest struct {
	Version  string    `json:"version"`
	Category ModelSpec `json:"category"`
	Severity ModelSpec `json:"severity"`
	Assignee ModelSpec `json:"assignee"`
	History  string    `json:"history,omitempty"`
}

// Models is the immutable set of classifiers served by one process.
type Models struct {
	Version  string
	Category classifier.Classifier
	Severity classifier.Classifier
	Assignee classifier.Classifier
}

// LoadManifest reads and checks manifest.json.
func LoadManifest(ctx context.Context, s Store) (Manifest, error) {
	var m Manifest
	if err := readJSON(ctx, s, ManifestName, &m); err != nil {
		return Manifest{}, err
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("artifact: %s has no version", ManifestName)
	}
	for name, spec := range map[string]ModelSpec{
		"category": m.Category, "severity": m.Severity, "assignee": m.Assignee,
	} {
		if spec.Path == "" || spec.Kind == "" {
			return Manifest{}, fmt.Errorf("artifact: %s model needs kind and path", name)
		}
	}
	return m, nil
}

// LoadModels decodes the three classifiers named by the manifest.
func LoadModels(ctx context.Context, s Store, m Manifest) (Models, error) {
	category, err := loadClassifier(ctx, s, m.Category)
	if err != nil {
		return Models{}, fmt.Errorf("category model: %w", err)
	}
	severity, err := loadClassifier(ctx, s, m.Severity)
	if err != nil {
		return Models{}, fmt.Errorf("severity model: %w", err)
	}
	assignee, err := loadClassifier(ctx, s, m.Assignee)
	if err != nil {
		return Models{}, fmt.Errorf("assignee model: %w", err)
	}
	return Models{Version: m.Version, Category: category, Severity: severity, Assignee: assignee}, nil
}

func loadClassifier(ctx context.Context, s Store, spec ModelSpec) (classifier.Classifier, error) {
	r, err := s.Open(ctx, spec.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return classifier.Decode(spec.Kind, r, spec.Labels)
}

// historyFile mirrors the layout written by the training pipeline: parallel
// id and embedding arrays.
type historyFile struct {
	IDs        []string    `json:"ids"`
	Embeddings [][]float32 `json:"embeddings"`
}

// LoadHistory reads the historical case snapshot. A missing file yields an
// empty snapshot and no error, since explanations are optional.
func LoadHistory(ctx context.Context, s Store, name string) ([]models.HistoricalCase, error) {
	if name == "" {
		return nil, nil
	}
	var h historyFile
	err := readJSON(ctx, s, name, &h)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(h.IDs) != len(h.Embeddings) {
		return nil, fmt.Errorf("artifact: %s has %d ids for %d embeddings", name, len(h.IDs), len(h.Embeddings))
	}

	cases := make([]models.HistoricalCase, len(h.IDs))
	for i, id := range h.IDs {
		cases[i] = models.HistoricalCase{ID: id, Embedding: h.Embeddings[i]}
	}
	return cases, nil
}

func readJSON(ctx context.Context, s Store, name string, v any) error {
	r, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("artifact: decode %s: %w", name, err)
	}
	return nil
}
