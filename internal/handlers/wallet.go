package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"kobopay/internal/services/ledger"
	"kobopay/internal/utils"
)

// WalletHandler exposes wallet read models.
type WalletHandler struct {
	wallets ledger.Service
}

func NewWalletHandler(wallets ledger.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetBalances lists every wallet of a user with its available amount.
func (h *WalletHandler) GetBalances(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid user id")
	}

	balances, err := h.wallets.GetBalances(c.Context(), uint(userID))
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.Success(c, fiber.Map{"balances": balances})
}

// GetTransactions pages through a user's journal.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid user id")
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	txs, err := h.wallets.GetTransactions(c.Context(), uint(userID), limit, offset)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.Success(c, fiber.Map{"transactions": txs})
}
