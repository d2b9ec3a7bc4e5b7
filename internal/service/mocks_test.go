package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ahmednasr/bug-triage/internal/artifact"
	"github.com/ahmednasr/bug-triage/internal/classifier"
	"github.com/ahmednasr/bug-triage/internal/models"
)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func (m *mockEmbedder) Close() error { return nil }

// fixedClassifier returns the same distribution for every input.
type fixedClassifier struct {
	labels []string
	dist   classifier.Distribution
	err    error
}

func (f fixedClassifier) PredictProba(context.Context, []float32) (classifier.Distribution, error) {
	return f.dist, f.err
}

func (f fixedClassifier) Labels() []string { return f.labels }

// testModels returns models whose top category is "UI" with confidence
// categoryConf. categoryConf must be at least 1/3 so that it stays the argmax.
func testModels(categoryConf float64) artifact.Models {
	return artifact.Models{
		Version: "v1.0.0",
		Category: fixedClassifier{
			labels: []string{"UI", "Backend", "Mobile"},
			dist:   classifier.Distribution{categoryConf, (1 - categoryConf) / 2, (1 - categoryConf) / 2},
		},
		Severity: fixedClassifier{
			labels: []string{"Critical", "Major", "Minor"},
			dist:   classifier.Distribution{0.1, 0.7, 0.2},
		},
		Assignee: fixedClassifier{
			labels: []string{"alice", "bob", "carol", "dave"},
			dist:   classifier.Distribution{0.1, 0.4, 0.3, 0.2},
		},
	}
}

type mockTicketing struct {
	mock.Mock
}

func (m *mockTicketing) IsAvailable() bool {
	return m.Called().Bool(0)
}

func (m *mockTicketing) CheckPermission(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketing) CreateIssue(ctx context.Context, d models.IssueDraft) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *mockTicketing) UpdateIssue(ctx context.Context, key string, fields map[string]any, comment string) error {
	return m.Called(ctx, key, fields, comment).Error(0)
}

func (m *mockTicketing) Target() models.TicketingStatus {
	return m.Called().Get(0).(models.TicketingStatus)
}

type outcomeCall struct {
	action  Action
	outcome TicketOutcome
}

type fakeRecorder struct {
	outcomes    []outcomeCall
	predictions []Action
	failures    int
	durations   int
}

func (r *fakeRecorder) TicketOutcome(a Action, o TicketOutcome) {
	r.outcomes = append(r.outcomes, outcomeCall{a, o})
}

func (r *fakeRecorder) Prediction(a Action) {
	r.predictions = append(r.predictions, a)
}

func (r *fakeRecorder) InferenceDuration(time.Duration) { r.durations++ }

func (r *fakeRecorder) InferenceFailure() { r.failures++ }
