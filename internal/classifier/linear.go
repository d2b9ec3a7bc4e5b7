package classifier

import (
	"context"
	"fmt"
	"math"
)

// Linear is a multinomial logistic regression: softmax(W·x + b).
//
// A single coefficient row over two labels is the binary form, scored with
// a sigmoid on the positive class.
type Linear struct {
	labels    []string
	coef      [][]float64
	intercept []float64
}

// LinearParams is the on-disk form of a Linear model.
type LinearParams struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// NewLinear validates the parameters against the label set.
func NewLinear(labels []string, p LinearParams) (*Linear, error) {
	rows := len(p.Coef)
	binary := rows == 1 && len(labels) == 2
	if rows != len(labels) && !binary {
		return nil, fmt.Errorf("linear: %d coefficient rows for %d labels", rows, len(labels))
	}
	if len(p.Intercept) != rows {
		return nil, fmt.Errorf("linear: %d intercepts for %d coefficient rows", len(p.Intercept), rows)
	}
	if rows == 0 {
		return nil, fmt.Errorf("linear: no coefficients")
	}
	dim := len(p.Coef[0])
	for i, row := range p.Coef {
		if len(row) != dim {
			return nil, fmt.Errorf("linear: row %d has %d features, want %d", i, len(row), dim)
		}
	}
	return &Linear{labels: labels, coef: p.Coef, intercept: p.Intercept}, nil
}

// Labels returns the label set in index order.
func (m *Linear) Labels() []string { return m.labels }

// PredictProba scores x against every class.
func (m *Linear) PredictProba(_ context.Context, x []float32) (Distribution, error) {
	if len(x) != len(m.coef[0]) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(m.coef[0]))
	}

	scores := make([]float64, len(m.coef))
	for k, row := range m.coef {
		s := m.intercept[k]
		for j, w := range row {
			s += w * float64(x[j])
		}
		scores[k] = s
	}

	if len(scores) == 1 {
		pos := 1 / (1 + math.Exp(-scores[0]))
		return Distribution{1 - pos, pos}, nil
	}
	return softmax(scores), nil
}
