package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/MasteraSnackin/LFO/internal/api"
	"github.com/MasteraSnackin/LFO/internal/config"
	"github.com/MasteraSnackin/LFO/internal/llm"
	"github.com/MasteraSnackin/LFO/internal/providers/cloud"
	"github.com/MasteraSnackin/LFO/internal/providers/local"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	localBackend, err := local.New(cfg.Local.BaseURL, cfg.Local.Model, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure local backend")
	}

	cloudBackend, err := cloud.New(cfg.Cloud.APIKey, cfg.Cloud.Model, cfg.Cloud.BaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to configure cloud backend")
	}

	stats := llm.NewStatsRecorder(cfg.Stats.HistorySize)

	breakers := llm.NewBreakerSet()
	breakers.Register(localBackend.Name(), llm.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.LocalResetTimeout,
	}, llm.WithTripCallback(stats.RecordTrip), llm.WithBreakerLogger(log))
	breakers.Register(cloudBackend.Name(), llm.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.CloudResetTimeout,
	}, llm.WithTripCallback(stats.RecordTrip), llm.WithBreakerLogger(log))

	gateway := llm.NewGateway(localBackend, cloudBackend, breakers, stats, llm.GatewayConfig{
		DefaultMode:         llm.ResolveMode(cfg.Routing.DefaultMode),
		MaxLocalTokens:      cfg.Routing.MaxLocalTokens,
		ConfidenceThreshold: cfg.Routing.ConfidenceThreshold,
		LocalTimeout:        cfg.Local.Timeout,
		CloudTimeout:        cfg.Cloud.Timeout,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      "LFO Gateway",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	api.SetupRoutes(app, api.Deps{
		Gateway:   gateway,
		Stats:     stats,
		Breakers:  breakers,
		Local:     localBackend,
		Cloud:     cloudBackend,
		AuthToken: cfg.Auth.Token,
		Logger:    log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithFields(logrus.Fields{
		"addr":        addr,
		"local_model": cfg.Local.Model,
		"cloud_model": cfg.Cloud.Model,
	}).Info("LFO gateway starting")

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"message": err.Error(),
			"type":    "internal_error",
		},
	})
}
