package service

import (
	"math"
	"sort"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// DefaultExplainTopK is the number of similar cases returned when k <= 0.
const DefaultExplainTopK = 5

// Explainer ranks historical cases by cosine similarity to a query
// embedding. The snapshot is captured at construction and never mutated, so
// one Explainer can serve concurrent requests.
type Explainer struct {
	history []models.HistoricalCase
	norms   []float64
}

// NewExplainer takes ownership of history. A nil or empty history is valid
// and yields no explanations.
func NewExplainer(history []models.HistoricalCase) *Explainer {
	norms := make([]float64, len(history))
	for i, h := range history {
		norms[i] = l2norm(h.Embedding)
	}
	return &Explainer{history: history, norms: norms}
}

// MatchDimension keeps the cases whose embedding has length dim and returns
// them with the number dropped. A snapshot built with another embedding
// model would otherwise score 0 against every query.
func MatchDimension(history []models.HistoricalCase, dim int) ([]models.HistoricalCase, int) {
	kept := make([]models.HistoricalCase, 0, len(history))
	for _, h := range history {
		if len(h.Embedding) == dim {
			kept = append(kept, h)
		}
	}
	return kept, len(history) - len(kept)
}

// Size returns the number of historical cases in the snapshot.
func (e *Explainer) Size() int { return len(e.history) }

// SimilarCases returns up to k cases, most similar first. Ties keep history
// order. Cases of a different dimension or with a zero vector score 0.
func (e *Explainer) SimilarCases(query []float32, k int) []models.SimilarCase {
	if len(e.history) == 0 {
		return []models.SimilarCase{}
	}
	if k <= 0 {
		k = DefaultExplainTopK
	}

	qn := l2norm(query)
	out := make([]models.SimilarCase, len(e.history))
	for i, h := range e.history {
		out[i] = models.SimilarCase{ID: h.ID, Similarity: cosine(query, qn, h.Embedding, e.norms[i])}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})

	if k < len(out) {
		out = out[:k]
	}
	return out
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (normA * normB)
	// Rounding can push parallel vectors just past ±1.
	return math.Max(-1, math.Min(1, sim))
}

func l2norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
