package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// Recorder observes the prediction path. Implementations must be safe for
// concurrent use.
type Recorder interface {
	OutcomeRecorder
	Prediction(action Action)
	InferenceDuration(d time.Duration)
	InferenceFailure()
}

// TriageOptions are the request-independent knobs of a TriageService.
type TriageOptions struct {
	Thresholds   GatingThresholds
	ExplainTopK  int
	EmbedTimeout time.Duration // zero means no extra bound
}

// TriageService orchestrates normalisation, inference, gating, the ticket
// action and explanations for one bug report.
type TriageService struct {
	predictor *Predictor
	explainer *Explainer
	executor  *Executor
	ticketing Ticketing
	opts      TriageOptions
	recorder  Recorder
	logger    *slog.Logger
}

// NewTriageService wires the service. ticketing and recorder may be nil.
func NewTriageService(
	predictor *Predictor,
	explainer *Explainer,
	executor *Executor,
	ticketing Ticketing,
	opts TriageOptions,
	recorder Recorder,
	logger *slog.Logger,
) *TriageService {
	if explainer == nil {
		explainer = NewExplainer(nil)
	}
	if opts.ExplainTopK <= 0 {
		opts.ExplainTopK = DefaultExplainTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TriageService{
		predictor: predictor,
		explainer: explainer,
		executor:  executor,
		ticketing: ticketing,
		opts:      opts,
		recorder:  recorder,
		logger:    logger,
	}
}

// Predict triages one report. Only validation and inference errors are
// returned; ticketing problems are logged and leave JiraIssueKey nil.
func (s *TriageService) Predict(ctx context.Context, req models.TriageRequest) (models.TriageResult, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return models.TriageResult{}, NewValidationErr("summary is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return models.TriageResult{}, NewValidationErr("description is required")
	}

	text := requestText(req.Summary, req.Description)

	inferCtx := ctx
	if s.opts.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, s.opts.EmbedTimeout)
		defer cancel()
	}

	start := time.Now()
	preds, err := s.predictor.PredictAll(inferCtx, text)
	if s.recorder != nil {
		s.recorder.InferenceDuration(time.Since(start))
	}
	if err != nil {
		if s.recorder != nil {
			s.recorder.InferenceFailure()
		}
		return models.TriageResult{}, err
	}

	action := Decide(preds.Category.Confidence, s.opts.Thresholds)
	if s.recorder != nil {
		s.recorder.Prediction(action)
	}
	s.logger.InfoContext(ctx, "bug triaged",
		"category", preds.Category.Label,
		"category_conf", preds.Category.Confidence,
		"severity", preds.Severity.Label,
		"action", action)

	var (
		issueKey *string
		similar  []models.SimilarCase
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.executor != nil {
			issueKey = s.executor.Execute(gctx, action, req, preds)
		}
		return nil
	})
	g.Go(func() error {
		similar = s.explainer.SimilarCases(preds.Embedding, s.opts.ExplainTopK)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.TriageResult{}, err
	}

	result := models.TriageResult{
		Category:     preds.Category.Label,
		CategoryConf: preds.Category.Confidence,
		Severity:     preds.Severity.Label,
		SeverityConf: preds.Severity.Confidence,
		AssigneeTop1: preds.TopAssignee(),
		AssigneeTop3: preds.Assignees,
		Action:       action.String(),
		IssueKey:     issueKey,
		ModelVersion: s.predictor.Version(),
	}
	if len(similar) > 0 {
		result.Explanations = &models.Explanations{SimilarCases: similar}
	}
	return result, nil
}

// Health reports liveness and the served model version.
func (s *TriageService) Health() models.HealthStatus {
	return models.HealthStatus{Status: "ok", ModelVersion: s.predictor.Version()}
}

// CreateIssue files an issue on explicit request. Unlike the gated path it
// ignores the auto-create flag but still checks availability and permission.
func (s *TriageService) CreateIssue(ctx context.Context, d models.IssueDraft) (string, error) {
	if strings.TrimSpace(d.Summary) == "" || strings.TrimSpace(d.Description) == "" {
		return "", NewValidationErr("summary and description are required")
	}
	if err := s.checkTicketing(ctx); err != nil {
		return "", err
	}
	key, err := s.ticketing.CreateIssue(ctx, d)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTicketingCallFailed, err)
	}
	s.logger.InfoContext(ctx, "issue created on request", "issue", key)
	return key, nil
}

// TicketingStatus describes the configured tracker and whether the
// credentials may create issues.
func (s *TriageService) TicketingStatus(ctx context.Context) models.TicketingStatus {
	if s.ticketing == nil {
		return models.TicketingStatus{}
	}
	status := s.ticketing.Target()
	if !s.ticketing.IsAvailable() {
		return status
	}
	ok, err := s.ticketing.CheckPermission(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "ticketing permission check failed", "err", err)
	}
	status.CanCreateIssues = ok
	return status
}

func (s *TriageService) checkTicketing(ctx context.Context) error {
	if s.ticketing == nil || !s.ticketing.IsAvailable() {
		return fmt.Errorf("%w: not configured", ErrTicketingUnavailable)
	}
	ok, err := s.ticketing.CheckPermission(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTicketingUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: credentials lack CREATE_ISSUES permission", ErrTicketingUnavailable)
	}
	return nil
}
