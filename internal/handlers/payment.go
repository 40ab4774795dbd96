package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"kobopay/internal/services/gateway"
	"kobopay/internal/services/intent"
	"kobopay/internal/utils"
)

// PaymentHandler exposes payment initiation and status lookup.
type PaymentHandler struct {
	intents intent.Service
	gateway gateway.Gateway
}

func NewPaymentHandler(intents intent.Service, gw gateway.Gateway) *PaymentHandler {
	return &PaymentHandler{
		intents: intents,
		gateway: gw,
	}
}

type initiateRequest struct {
	Phone    string          `json:"phone"`
	Amount   decimal.Decimal `json:"amount"`
	Country  string          `json:"country"`
	Provider string          `json:"provider"`
	Currency string          `json:"currency"`
	UserID   *uint           `json:"user_id,omitempty"`
}

// Initiate creates a payment intent, asks the gateway to collect and
// records the gateway's synchronous answer.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	var input initiateRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	paymentIntent, err := h.intents.CreateIntent(c.Context(), intent.CreateRequest{
		Phone:    input.Phone,
		Amount:   input.Amount,
		Country:  input.Country,
		Provider: input.Provider,
		Currency: input.Currency,
		UserID:   input.UserID,
	})
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}

	charge, err := h.gateway.InitiateCharge(c.Context(), gateway.ChargeRequest{
		IntentID:    paymentIntent.ID,
		PhoneNumber: paymentIntent.PhoneNumber,
		Amount:      paymentIntent.Amount,
		Currency:    paymentIntent.Currency,
		Country:     paymentIntent.Country,
		Provider:    paymentIntent.Provider,
		Reference:   paymentIntent.Reference,
	})
	if err != nil {
		log.Printf("gateway call failed for intent %s: %v", paymentIntent.ID, err)
		if _, recErr := h.intents.RecordGatewayResult(c.Context(), paymentIntent.ID, false, ""); recErr != nil {
			log.Printf("failed to record gateway failure for %s: %v", paymentIntent.ID, recErr)
		}
		return utils.BadGateway(c, "payment gateway unavailable")
	}

	updated, err := h.intents.RecordGatewayResult(c.Context(), paymentIntent.ID, charge.Accepted, charge.TxHash)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}

	return utils.Created(c, fiber.Map{
		"transaction_id": updated.ID,
		"reference":      updated.Reference,
		"status":         updated.Status,
		"redirect_url":   charge.RedirectURL,
		"instructions":   charge.Instructions,
	})
}

// GetStatus returns a payment intent snapshot.
func (h *PaymentHandler) GetStatus(c *fiber.Ctx) error {
	paymentIntent, err := h.intents.GetStatus(c.Context(), c.Params("id"))
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.Success(c, fiber.Map{"payment": paymentIntent})
}
