package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"kobopay/internal/models"
	"kobopay/internal/services/intent"
	"kobopay/internal/services/ledger"
	"kobopay/internal/utils"
)

// AdminHandler carries the operator override surface: manual credits,
// status overrides and the failed-intent retry path.
type AdminHandler struct {
	intents intent.Service
	wallets ledger.Service
}

func NewAdminHandler(intents intent.Service, wallets ledger.Service) *AdminHandler {
	return &AdminHandler{
		intents: intents,
		wallets: wallets,
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
	TxHash string `json:"tx_hash"`
}

// UpdateIntentStatus is the direct admin path through the same state
// machine the webhook processor uses. Reopening a failed intent goes
// through the dedicated retry transition.
func (h *AdminHandler) UpdateIntentStatus(c *fiber.Ctx) error {
	var input updateStatusRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	status := models.PaymentIntentStatus(input.Status)
	if !status.Valid() {
		return utils.BadRequest(c, "unknown payment status")
	}

	id := c.Params("id")

	current, err := h.intents.GetStatus(c.Context(), id)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if current.Status == models.PaymentStatusFailed && status == models.PaymentStatusPending {
		reopened, err := h.intents.Reopen(c.Context(), id)
		if err != nil {
			return utils.DomainErrorResponse(c, err)
		}
		return utils.Success(c, fiber.Map{"payment": reopened})
	}

	updated, err := h.intents.UpdateStatus(c.Context(), id, status, input.TxHash)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.Success(c, fiber.Map{"payment": updated})
}

type creditWalletRequest struct {
	UserID      uint            `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// CreditWallet is the manual administrative credit via the ledger.
func (h *AdminHandler) CreditWallet(c *fiber.Ctx) error {
	var input creditWalletRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.UserID == 0 {
		return utils.BadRequest(c, "user_id is required")
	}
	if input.Currency == "" {
		return utils.BadRequest(c, "currency is required")
	}
	if input.Description == "" {
		input.Description = "manual operator credit"
	}

	txn, err := h.wallets.AddFunds(c.Context(), ledger.FundsRequest{
		UserID:      input.UserID,
		Currency:    input.Currency,
		Amount:      input.Amount,
		Description: input.Description,
		Reference:   input.Reference,
	})
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": txn})
}
