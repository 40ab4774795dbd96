package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kobopay/internal/services/webhook"
	"kobopay/internal/utils"
)

// WebhookHandler is the sole inbound entry point for the gateway.
type WebhookHandler struct {
	processor webhook.Service
}

func NewWebhookHandler(processor webhook.Service) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleGatewayWebhook passes the raw body through untouched; the
// signature is computed over the exact bytes the gateway sent.
func (h *WebhookHandler) HandleGatewayWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Signature")
	timestamp := c.Get("X-Timestamp")

	body := c.Body()
	if len(body) == 0 {
		return utils.BadRequest(c, "empty request body")
	}

	result, err := h.processor.Process(c.Context(), body, signature, timestamp)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}

	return utils.Success(c, result)
}
