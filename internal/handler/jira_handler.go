package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/bug-triage/internal/models"
	"github.com/ahmednasr/bug-triage/internal/service"
)

const (
	msgInvalidDraft = "Summary and description are required"
	msgNoPermission = "Jira is not properly configured or lacks create permissions. Contact administrator."
	msgCreateFailed = "Failed to create Jira issue. Check server logs for details."
)

// JiraHandler exposes manual issue creation and the credential check.
type JiraHandler struct {
	svc Triager
}

// NewJiraHandler returns a handler instance.
func NewJiraHandler(svc Triager) *JiraHandler {
	return &JiraHandler{svc: svc}
}

// Register mounts POST /create_jira and GET /debug/jira_check.
func (h *JiraHandler) Register(r fiber.Router) {
	r.Post("/create_jira", h.createIssue)
	r.Get("/debug/jira_check", h.check)
}

// createIssue always answers 200; failures are reported in the body so the
// browser UI can show them inline.
func (h *JiraHandler) createIssue(c *fiber.Ctx) error {
	var draft models.IssueDraft
	if err := c.BodyParser(&draft); err != nil {
		return c.JSON(models.CreateIssueResponse{Error: msgInvalidDraft})
	}

	key, err := h.svc.CreateIssue(c.UserContext(), draft)
	switch {
	case err == nil:
		return c.JSON(models.CreateIssueResponse{Success: true, IssueKey: key})
	case errors.Is(err, service.ErrInputInvalid):
		return c.JSON(models.CreateIssueResponse{Error: msgInvalidDraft})
	case errors.Is(err, service.ErrTicketingUnavailable):
		return c.JSON(models.CreateIssueResponse{Error: msgNoPermission})
	default:
		return c.JSON(models.CreateIssueResponse{Error: msgCreateFailed})
	}
}

func (h *JiraHandler) check(c *fiber.Ctx) error {
	return c.JSON(h.svc.TicketingStatus(c.UserContext()))
}
