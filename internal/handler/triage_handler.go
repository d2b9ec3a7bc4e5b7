package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/bug-triage/internal/models"
	"github.com/ahmednasr/bug-triage/internal/service"
)

// Triager is the slice of service.TriageService the HTTP layer needs.
type Triager interface {
	Predict(ctx context.Context, req models.TriageRequest) (models.TriageResult, error)
	Health() models.HealthStatus
	CreateIssue(ctx context.Context, d models.IssueDraft) (string, error)
	TicketingStatus(ctx context.Context) models.TicketingStatus
}

// TriageHandler wires HTTP → TriageService.
type TriageHandler struct {
	svc Triager
}

// NewTriageHandler returns a handler instance.
func NewTriageHandler(svc Triager) *TriageHandler {
	return &TriageHandler{svc: svc}
}

// Register mounts POST /predict on the given router.
func (h *TriageHandler) Register(r fiber.Router) {
	r.Post("/predict", h.predict)
}

// predict handles POST /predict {"project":..., "summary":..., "description":...}
func (h *TriageHandler) predict(c *fiber.Ctx) error {
	var req models.TriageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object")
	}

	result, err := h.svc.Predict(c.UserContext(), req)
	if err != nil {
		return statusError(err)
	}
	return c.JSON(result)
}

// statusError maps service errors to HTTP statuses.
func statusError(err error) *fiber.Error {
	switch {
	case errors.Is(err, service.ErrInputInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case errors.Is(err, service.ErrInference):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler renders every error as {"error": message} with the mapped
// status. It is installed as fiber.Config.ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
