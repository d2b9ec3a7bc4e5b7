package classifier

import (
	"context"
	"fmt"
	"math"
)

// GaussianNB is a Gaussian naive Bayes model. When scaling parameters are
// present, inputs are min-max scaled (x*scale + min) before scoring, matching
// the transform applied at training time.
type GaussianNB struct {
	labels   []string
	logPrior []float64
	theta    [][]float64
	variance [][]float64
	scaleMin []float64
	scale    []float64
}

// GaussianNBParams is the on-disk form of a GaussianNB model.
type GaussianNBParams struct {
	ClassPrior  []float64   `json:"class_prior"`
	Theta       [][]float64 `json:"theta"`
	Var         [][]float64 `json:"var"`
	ScalerMin   []float64   `json:"scaler_min,omitempty"`
	ScalerScale []float64   `json:"scaler_scale,omitempty"`
}

// NewGaussianNB validates the parameters against the label set.
func NewGaussianNB(labels []string, p GaussianNBParams) (*GaussianNB, error) {
	k := len(labels)
	if len(p.ClassPrior) != k || len(p.Theta) != k || len(p.Var) != k {
		return nil, fmt.Errorf("gaussian_nb: want %d classes, got prior=%d theta=%d var=%d",
			k, len(p.ClassPrior), len(p.Theta), len(p.Var))
	}
	if k == 0 {
		return nil, fmt.Errorf("gaussian_nb: no classes")
	}
	dim := len(p.Theta[0])
	logPrior := make([]float64, k)
	for c := 0; c < k; c++ {
		if len(p.Theta[c]) != dim || len(p.Var[c]) != dim {
			return nil, fmt.Errorf("gaussian_nb: class %d has inconsistent feature count", c)
		}
		for j, v := range p.Var[c] {
			if v <= 0 {
				return nil, fmt.Errorf("gaussian_nb: non-positive variance at class %d feature %d", c, j)
			}
		}
		if p.ClassPrior[c] <= 0 {
			return nil, fmt.Errorf("gaussian_nb: non-positive prior for class %d", c)
		}
		logPrior[c] = math.Log(p.ClassPrior[c])
	}
	if (p.ScalerMin == nil) != (p.ScalerScale == nil) {
		return nil, fmt.Errorf("gaussian_nb: scaler_min and scaler_scale must be set together")
	}
	if p.ScalerMin != nil && (len(p.ScalerMin) != dim || len(p.ScalerScale) != dim) {
		return nil, fmt.Errorf("gaussian_nb: scaler has %d/%d features, want %d",
			len(p.ScalerMin), len(p.ScalerScale), dim)
	}

	return &GaussianNB{
		labels:   labels,
		logPrior: logPrior,
		theta:    p.Theta,
		variance: p.Var,
		scaleMin: p.ScalerMin,
		scale:    p.ScalerScale,
	}, nil
}

// Labels returns the label set in index order.
func (m *GaussianNB) Labels() []string { return m.labels }

// PredictProba computes the joint log-likelihood per class and normalises it.
func (m *GaussianNB) PredictProba(_ context.Context, x []float32) (Distribution, error) {
	dim := len(m.theta[0])
	if len(x) != dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), dim)
	}

	xs := make([]float64, dim)
	for j, v := range x {
		xs[j] = float64(v)
		if m.scale != nil {
			xs[j] = xs[j]*m.scale[j] + m.scaleMin[j]
		}
	}

	jll := make([]float64, len(m.labels))
	for c := range jll {
		s := m.logPrior[c]
		for j, xv := range xs {
			v := m.variance[c][j]
			d := xv - m.theta[c][j]
			s -= 0.5*math.Log(2*math.Pi*v) + d*d/(2*v)
		}
		jll[c] = s
	}
	return softmax(jll), nil
}
