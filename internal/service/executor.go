package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// Ticketing is the issue-tracker collaborator. Every method may be called
// only after IsAvailable reports true.
type Ticketing interface {
	IsAvailable() bool
	CheckPermission(ctx context.Context) (bool, error)
	CreateIssue(ctx context.Context, d models.IssueDraft) (string, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any, comment string) error
	Target() models.TicketingStatus
}

// TicketOutcome labels what the executor ended up doing.
type TicketOutcome string

const (
	OutcomeSkipped    TicketOutcome = "skipped"     // NO_ACTION or side effects disabled
	OutcomeDryRun     TicketOutcome = "dry_run"     // collaborator unavailable or unauthorised
	OutcomeCreated    TicketOutcome = "created"     // new issue filed
	OutcomeCommented  TicketOutcome = "commented"   // suggestion posted on the fallback issue
	OutcomeCallFailed TicketOutcome = "call_failed" // collaborator call returned an error
)

// OutcomeRecorder receives one observation per executed action.
type OutcomeRecorder interface {
	TicketOutcome(action Action, outcome TicketOutcome)
}

// Executor turns a gating decision into at most one ticketing call. It never
// returns an error: every ticketing failure degrades to a dry run, which
// performs no side effect and is logged with effective_action=NO_ACTION.
// The gating decision itself is left unchanged for the caller to report.
type Executor struct {
	ticketing     Ticketing
	enabled       bool
	fallbackIssue string
	recorder      OutcomeRecorder
	logger        *slog.Logger
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	Enabled       bool   // JIRA_AUTO_CREATE
	FallbackIssue string // issue receiving SUGGEST_COMMENT comments
}

// NewExecutor wires the collaborator. recorder may be nil.
func NewExecutor(t Ticketing, cfg ExecutorConfig, recorder OutcomeRecorder, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		ticketing:     t,
		enabled:       cfg.Enabled,
		fallbackIssue: cfg.FallbackIssue,
		recorder:      recorder,
		logger:        logger,
	}
}

// Execute performs the side effect for action and returns the key of a
// newly created issue, if any.
func (e *Executor) Execute(ctx context.Context, action Action, req models.TriageRequest, p PredictionSet) *string {
	key, outcome := e.execute(ctx, action, req, p)
	if e.recorder != nil {
		e.recorder.TicketOutcome(action, outcome)
	}
	return key
}

func (e *Executor) execute(ctx context.Context, action Action, req models.TriageRequest, p PredictionSet) (*string, TicketOutcome) {
	if action == ActionNoAction {
		return nil, OutcomeSkipped
	}
	if !e.enabled {
		e.logger.DebugContext(ctx, "ticketing side effects disabled", "action", action)
		return nil, OutcomeSkipped
	}

	if err := e.ensureAvailable(ctx); err != nil {
		e.logger.WarnContext(ctx, "ticketing action skipped; running in dry-run mode",
			"action", action, "effective_action", ActionNoAction, "reason", err.Error())
		return nil, OutcomeDryRun
	}

	switch action {
	case ActionAutoCreate:
		key, err := e.ticketing.CreateIssue(ctx, models.IssueDraft{
			Summary:     req.Summary,
			Description: req.Description,
			Category:    p.Category.Label,
			Severity:    p.Severity.Label,
			Assignee:    p.TopAssignee(),
		})
		if err != nil {
			e.logger.ErrorContext(ctx, "failed to create issue", "err", fmt.Errorf("%w: %w", ErrTicketingCallFailed, err))
			return nil, OutcomeCallFailed
		}
		return &key, OutcomeCreated

	case ActionSuggestComment:
		if err := e.ticketing.UpdateIssue(ctx, e.fallbackIssue, nil, SuggestionComment(p)); err != nil {
			e.logger.ErrorContext(ctx, "failed to comment on fallback issue",
				"issue", e.fallbackIssue, "err", fmt.Errorf("%w: %w", ErrTicketingCallFailed, err))
			return nil, OutcomeCallFailed
		}
		e.logger.InfoContext(ctx, "posted triage suggestion", "issue", e.fallbackIssue)
		return nil, OutcomeCommented
	}

	return nil, OutcomeSkipped
}

// ensureAvailable is the capability check run before every ticketing call.
func (e *Executor) ensureAvailable(ctx context.Context) error {
	if e.ticketing == nil || !e.ticketing.IsAvailable() {
		return fmt.Errorf("%w: not configured", ErrTicketingUnavailable)
	}
	ok, err := e.ticketing.CheckPermission(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTicketingUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: credentials lack CREATE_ISSUES permission", ErrTicketingUnavailable)
	}
	return nil
}

// SuggestionComment renders the advisory comment posted for SUGGEST_COMMENT.
func SuggestionComment(p PredictionSet) string {
	return fmt.Sprintf("[Suggestion] AI triage → category: %s (%.2f), severity: %s (%.2f), assignee: %s",
		p.Category.Label, p.Category.Confidence,
		p.Severity.Label, p.Severity.Confidence,
		p.TopAssignee())
}
