package service

import "fmt"

// Action is the side effect chosen for a triaged bug.
type Action string

const (
	ActionAutoCreate     Action = "AUTO_CREATE"
	ActionSuggestComment Action = "SUGGEST_COMMENT"
	ActionNoAction       Action = "NO_ACTION"
)

// String implements fmt.Stringer.
func (a Action) String() string { return string(a) }

// GatingThresholds are the confidence cutoffs for automatic actions.
type GatingThresholds struct {
	AutoCreate float64
	Comment    float64
}

// NewGatingThresholds validates AutoCreate >= Comment >= 0 (and <= 1). It is
// meant to run once at startup; Decide does not re-check.
func NewGatingThresholds(autoCreate, comment float64) (GatingThresholds, error) {
	if comment < 0 || autoCreate > 1 {
		return GatingThresholds{}, fmt.Errorf("gating thresholds must lie in [0,1]: auto=%v comment=%v", autoCreate, comment)
	}
	if autoCreate < comment {
		return GatingThresholds{}, fmt.Errorf("auto-create threshold %v is below comment threshold %v", autoCreate, comment)
	}
	return GatingThresholds{AutoCreate: autoCreate, Comment: comment}, nil
}

// Decide maps a category confidence to exactly one action; first match wins.
func Decide(confidence float64, t GatingThresholds) Action {
	switch {
	case confidence >= t.AutoCreate:
		return ActionAutoCreate
	case confidence >= t.Comment:
		return ActionSuggestComment
	default:
		return ActionNoAction
	}
}
