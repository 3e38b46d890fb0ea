package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MasteraSnackin/LFO/internal/llm"
)

// StatsHandler exposes the read-only observability endpoints
type StatsHandler struct {
	stats    *llm.StatsRecorder
	breakers *llm.BreakerSet
	local    llm.Backend
	cloud    llm.Backend
}

// NewStatsHandler creates a stats handler
func NewStatsHandler(stats *llm.StatsRecorder, breakers *llm.BreakerSet, local, cloud llm.Backend) *StatsHandler {
	return &StatsHandler{
		stats:    stats,
		breakers: breakers,
		local:    local,
		cloud:    cloud,
	}
}

// HandleStats handles GET /v1/stats
func (h *StatsHandler) HandleStats(c *fiber.Ctx) error {
	snapshot := h.stats.Snapshot()

	return c.JSON(fiber.Map{
		"stats":    snapshot,
		"breakers": h.breakers.States(),
	})
}

// HandleHealth handles GET /v1/health
func (h *StatsHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"backends": fiber.Map{
			"local": fiber.Map{"model": h.local.Model()},
			"cloud": fiber.Map{"model": h.cloud.Model()},
		},
		"breakers": h.breakers.States(),
	})
}
