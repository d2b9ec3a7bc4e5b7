package classifier

import (
	"context"
	"fmt"
	"math"
)

// TreeNode is one node of a regression tree. A node is a leaf when Left < 0.
// Inputs below Threshold go left; NaN inputs follow DefaultLeft.
type TreeNode struct {
	Feature     int     `json:"feature"`
	Threshold   float64 `json:"threshold"`
	Left        int     `json:"left"`
	Right       int     `json:"right"`
	DefaultLeft bool    `json:"default_left"`
	Value       float64 `json:"value"`
}

// Tree is a regression tree contributing to one class margin. A nil Class
// means "tree index modulo class count", the usual boosting layout.
type Tree struct {
	Class *int       `json:"class,omitempty"`
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsembleParams is the on-disk form of a TreeEnsemble model.
type TreeEnsembleParams struct {
	NumFeature int     `json:"num_feature"`
	BaseScore  float64 `json:"base_score"`
	Trees      []Tree  `json:"trees"`
}

// TreeEnsemble is a multi-class gradient-boosted tree model with softmax
// output: the margin of class c is BaseScore plus the leaf values of every
// tree assigned to c.
type TreeEnsemble struct {
	labels     []string
	numFeature int
	baseScore  float64
	trees      []Tree
	classOf    []int
}

// NewTreeEnsemble validates the tree structure against the label set.
func NewTreeEnsemble(labels []string, p TreeEnsembleParams) (*TreeEnsemble, error) {
	k := len(labels)
	if k == 0 {
		return nil, fmt.Errorf("tree_ensemble: no classes")
	}
	if p.NumFeature <= 0 {
		return nil, fmt.Errorf("tree_ensemble: num_feature must be positive")
	}
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("tree_ensemble: no trees")
	}

	classOf := make([]int, len(p.Trees))
	for i, t := range p.Trees {
		c := i % k
		if t.Class != nil {
			c = *t.Class
		}
		if c < 0 || c >= k {
			return nil, fmt.Errorf("tree_ensemble: tree %d targets class %d of %d", i, c, k)
		}
		classOf[i] = c
		if err := validateTree(t.Nodes, p.NumFeature); err != nil {
			return nil, fmt.Errorf("tree_ensemble: tree %d: %w", i, err)
		}
	}

	return &TreeEnsemble{
		labels:     labels,
		numFeature: p.NumFeature,
		baseScore:  p.BaseScore,
		trees:      p.Trees,
		classOf:    classOf,
	}, nil
}

// validateTree rejects out-of-range references and cycles, so that walking
// a tree always terminates at a leaf.
func validateTree(nodes []TreeNode, numFeature int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range nodes {
		if n.Left < 0 {
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(nodes) || n.Right >= len(nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= numFeature {
			return fmt.Errorf("node %d splits on feature %d", i, n.Feature)
		}
	}
	return nil
}

// Labels returns the label set in index order.
func (m *TreeEnsemble) Labels() []string { return m.labels }

// PredictProba sums leaf values per class and applies softmax.
func (m *TreeEnsemble) PredictProba(_ context.Context, x []float32) (Distribution, error) {
	if len(x) != m.numFeature {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), m.numFeature)
	}

	margins := make([]float64, len(m.labels))
	for c := range margins {
		margins[c] = m.baseScore
	}
	for i, t := range m.trees {
		margins[m.classOf[i]] += leafValue(t.Nodes, x)
	}
	return softmax(margins), nil
}

func leafValue(nodes []TreeNode, x []float32) float64 {
	i := 0
	for nodes[i].Left >= 0 {
		n := nodes[i]
		v := float64(x[n.Feature])
		switch {
		case math.IsNaN(v):
			if n.DefaultLeft {
				i = n.Left
			} else {
				i = n.Right
			}
		case v < n.Threshold:
			i = n.Left
		default:
			i = n.Right
		}
	}
	return nodes[i].Value
}
