package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/MasteraSnackin/LFO/internal/llm"
)

// ChatHandler serves the chat-completion endpoint
type ChatHandler struct {
	gateway *llm.Gateway
	logger  *logrus.Logger
}

// NewChatHandler creates a chat handler backed by the gateway
func NewChatHandler(gateway *llm.Gateway, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// HandleCompletion handles POST /v1/chat/completions
func (h *ChatHandler) HandleCompletion(c *fiber.Ctx) error {
	var req llm.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, llm.BadRequest("invalid request body: "+err.Error()))
	}

	resp, err := h.gateway.Complete(c.Context(), &req)
	if err != nil {
		var gwErr *llm.Error
		if errors.As(err, &gwErr) {
			return writeError(c, gwErr)
		}
		h.logger.WithError(err).Error("unclassified pipeline failure")
		return writeError(c, llm.Classify("", err))
	}

	return c.JSON(resp)
}

// writeError maps a canonical error kind onto an HTTP status and the
// structured error body. Status selection keys off the Kind field
// only, never the message text.
func writeError(c *fiber.Ctx, gwErr *llm.Error) error {
	status := statusForKind(gwErr.Kind)

	body := fiber.Map{
		"message": gwErr.Message,
		"type":    string(gwErr.Kind),
	}
	if gwErr.Backend != "" {
		body["code"] = gwErr.Backend + "_" + string(gwErr.Kind)
	}

	return c.Status(status).JSON(fiber.Map{"error": body})
}

func statusForKind(kind llm.Kind) int {
	switch kind {
	case llm.KindBadRequest:
		return fiber.StatusBadRequest
	case llm.KindAuthOrQuota:
		return fiber.StatusUnauthorized
	case llm.KindRateLimited:
		return fiber.StatusTooManyRequests
	case llm.KindUnreachable, llm.KindCircuitOpen:
		return fiber.StatusServiceUnavailable
	case llm.KindTimeout:
		return fiber.StatusGatewayTimeout
	case llm.KindCanceled:
		// nginx convention for client-closed-request
		return 499
	default:
		return fiber.StatusBadGateway
	}
}
