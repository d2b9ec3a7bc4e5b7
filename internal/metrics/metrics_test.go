package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/bug-triage/internal/service"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Prediction(service.ActionAutoCreate)
	m.Prediction(service.ActionAutoCreate)
	m.Prediction(service.ActionNoAction)
	m.TicketOutcome(service.ActionSuggestComment, service.OutcomeDryRun)
	m.InferenceFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("AUTO_CREATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("NO_ACTION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketingOutcomes.WithLabelValues("SUGGEST_COMMENT", "dry_run")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inferenceFailures))
}

func TestHandler(t *testing.T) {
	m := New()
	m.InferenceDuration(150 * time.Millisecond)
	m.Prediction(service.ActionSuggestComment)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `triage_predictions_total{action="SUGGEST_COMMENT"} 1`)
	assert.Contains(t, string(body), "triage_inference_duration_seconds_count 1")
}
