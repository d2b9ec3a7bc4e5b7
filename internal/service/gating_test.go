package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	th, err := NewGatingThresholds(0.85, 0.60)
	require.NoError(t, err)

	tests := map[float64]Action{
		0.92: ActionAutoCreate,
		0.85: ActionAutoCreate,
		0.84: ActionSuggestComment,
		0.70: ActionSuggestComment,
		0.60: ActionSuggestComment,
		0.59: ActionNoAction,
		0.40: ActionNoAction,
		0:    ActionNoAction,
		1:    ActionAutoCreate,
	}
	for conf, want := range tests {
		assert.Equal(t, want, Decide(conf, th), "confidence %.2f", conf)
	}
}

func TestDecide_Total(t *testing.T) {
	th := GatingThresholds{AutoCreate: 0.8, Comment: 0.8}
	for i := 0; i <= 100; i++ {
		got := Decide(float64(i)/100, th)
		assert.Contains(t, []Action{ActionAutoCreate, ActionSuggestComment, ActionNoAction}, got)
		assert.NotEqual(t, ActionSuggestComment, got, "equal thresholds leave no comment band")
	}
}

func TestNewGatingThresholds(t *testing.T) {
	_, err := NewGatingThresholds(0.5, 0.6)
	assert.ErrorContains(t, err, "below comment threshold")

	_, err = NewGatingThresholds(1.2, 0.6)
	assert.ErrorContains(t, err, "[0,1]")

	_, err = NewGatingThresholds(0.8, -0.1)
	assert.ErrorContains(t, err, "[0,1]")

	th, err := NewGatingThresholds(0.7, 0.7)
	require.NoError(t, err)
	assert.Equal(t, GatingThresholds{AutoCreate: 0.7, Comment: 0.7}, th)
}
