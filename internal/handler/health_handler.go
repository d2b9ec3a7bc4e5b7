package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/bug-triage/internal/database"
)

// HealthHandler reports liveness, the model version and the state of the
// optional backing stores.
type HealthHandler struct {
	svc Triager
	dbs map[string]database.Pinger
}

// NewHealthHandler wires the service and named dependencies. A nil Pinger
// is reported as "not_configured".
func NewHealthHandler(svc Triager, dbs map[string]database.Pinger) *HealthHandler {
	return &HealthHandler{svc: svc, dbs: dbs}
}

// Register mounts GET /health on the given router.
func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	status := h.svc.Health()
	if len(h.dbs) > 0 {
		status.Dependencies = make(map[string]string, len(h.dbs))
		for name, db := range h.dbs {
			status.Dependencies[name] = checkDB(c.UserContext(), db)
		}
	}
	return c.JSON(status)
}

func checkDB(ctx context.Context, db database.Pinger) string {
	if db == nil {
		return "not_configured"
	}
	if err := db.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
