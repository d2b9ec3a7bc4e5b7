package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ahmednasr/bug-triage/internal/database"
	"github.com/ahmednasr/bug-triage/internal/middleware"
)

// RouterDeps is everything RegisterRoutes mounts.
type RouterDeps struct {
	Triage      Triager
	Databases   map[string]database.Pinger
	Metrics     http.Handler // nil disables /metrics
	CORSOrigins []string
	Logger      *slog.Logger
}

// RegisterRoutes installs the middleware chain and every endpoint. The
// routes sit at the root because the browser UI calls them there.
func RegisterRoutes(app *fiber.App, deps RouterDeps) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logging(deps.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(deps.CORSOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	NewTriageHandler(deps.Triage).Register(app)
	NewJiraHandler(deps.Triage).Register(app)
	NewHealthHandler(deps.Triage, deps.Databases).Register(app)

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}
}
