package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/MasteraSnackin/LFO/internal/api/handlers"
	"github.com/MasteraSnackin/LFO/internal/api/middleware"
	"github.com/MasteraSnackin/LFO/internal/llm"
)

// Deps bundles everything the route tree needs
type Deps struct {
	Gateway   *llm.Gateway
	Stats     *llm.StatsRecorder
	Breakers  *llm.BreakerSet
	Local     llm.Backend
	Cloud     llm.Backend
	AuthToken string
	Logger    *logrus.Logger
}

// SetupRoutes registers all HTTP routes on the app
func SetupRoutes(app *fiber.App, deps Deps) {
	chat := handlers.NewChatHandler(deps.Gateway, deps.Logger)
	stats := handlers.NewStatsHandler(deps.Stats, deps.Breakers, deps.Local, deps.Cloud)

	v1 := app.Group("/v1", middleware.AuthGate(deps.AuthToken))

	v1.Post("/chat/completions", chat.HandleCompletion)
	v1.Get("/stats", stats.HandleStats)
	v1.Get("/health", stats.HandleHealth)
}
