// Package classifier holds the probability models applied to bug embeddings.
//
// Every model maps one embedding to a probability distribution over a label
// set fixed when the model is loaded. Models are immutable after loading and
// safe for concurrent use.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// probSumTolerance bounds how far a distribution may drift from summing to 1.
const probSumTolerance = 1e-3

// ErrDimension is returned when an input vector does not match the model.
var ErrDimension = errors.New("classifier: input dimension mismatch")

// Distribution is a probability per label index.
type Distribution []float64

// Classifier returns a probability distribution over its label set.
type Classifier interface {
	PredictProba(ctx context.Context, x []float32) (Distribution, error)
	Labels() []string
}

// Validate checks that d is a proper distribution over n labels.
func (d Distribution) Validate(n int) error {
	if len(d) != n {
		return fmt.Errorf("classifier: distribution has %d entries, want %d", len(d), n)
	}
	var sum float64
	for i, p := range d {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("classifier: invalid probability %v at index %d", p, i)
		}
		sum += p
	}
	if math.Abs(sum-1) > probSumTolerance {
		return fmt.Errorf("classifier: probabilities sum to %.6f", sum)
	}
	return nil
}

// Argmax returns the index and value of the largest entry. Ties resolve to
// the lowest index. It returns -1 for an empty distribution.
func (d Distribution) Argmax() (int, float64) {
	best := -1
	var bestP float64
	for i, p := range d {
		if best == -1 || p > bestP {
			best, bestP = i, p
		}
	}
	return best, bestP
}

// TopK returns up to k label indices ordered by descending probability,
// ties broken by ascending index.
func (d Distribution) TopK(k int) []int {
	idx := make([]int, len(d))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return d[idx[a]] > d[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:max(k, 0)]
	}
	return idx
}

// softmax converts raw scores to probabilities in place, shifted by the max
// score for numeric stability.
func softmax(scores []float64) Distribution {
	if len(scores) == 0 {
		return Distribution{}
	}
	hi := scores[0]
	for _, s := range scores[1:] {
		if s > hi {
			hi = s
		}
	}
	var sum float64
	for i, s := range scores {
		scores[i] = math.Exp(s - hi)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return Distribution(scores)
}
