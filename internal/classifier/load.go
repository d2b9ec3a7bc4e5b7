package classifier

import (
	"encoding/json"
	"fmt"
	"io"
)

// Model kinds understood by Decode.
const (
	KindTreeEnsemble = "tree_ensemble"
	KindLinear       = "linear"
	KindGaussianNB   = "gaussian_nb"
)

// Decode reads the JSON parameters of a model of the given kind.
func Decode(kind string, r io.Reader, labels []string) (Classifier, error) {
	if err := checkLabels(labels); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)
	switch kind {
	case KindTreeEnsemble:
		var p TreeEnsembleParams
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return NewTreeEnsemble(labels, p)
	case KindLinear:
		var p LinearParams
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return NewLinear(labels, p)
	case KindGaussianNB:
		var p GaussianNBParams
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return NewGaussianNB(labels, p)
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", kind)
	}
}

// checkLabels rejects empty, blank or duplicated labels.
func checkLabels(labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("classifier: empty label set")
	}
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("classifier: blank label at index %d", i)
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("classifier: duplicate label %q", l)
		}
		seen[l] = struct{}{}
	}
	return nil
}
