package handler

import (
	"yield-vault-engine/internal/adapter/http/dto"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"
	"yield-vault-engine/pkg/response"

	"github.com/gin-gonic/gin"
)

// VaultHandler handles the public vault surface: deposits, withdrawals and
// read-only vault state.
type VaultHandler struct {
	vaultSvc  ports.VaultService
	safetySvc ports.SafetyService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vaultSvc ports.VaultService, safetySvc ports.SafetyService) *VaultHandler {
	return &VaultHandler{vaultSvc: vaultSvc, safetySvc: safetySvc}
}

// Deposit handles POST /api/v1/vault/deposit.
func (h *VaultHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := domainAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	shares, err := h.vaultSvc.Deposit(c.Request.Context(), req.Address, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.DepositResponse{Shares: formatAmount(shares)})
}

// Withdraw handles POST /api/v1/vault/withdraw.
func (h *VaultHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	shares, err := domainAmount(req.Shares)
	if err != nil {
		response.Error(c, err)
		return
	}

	amount, err := h.vaultSvc.Withdraw(c.Request.Context(), req.Address, shares)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WithdrawResponse{Amount: formatAmount(amount)})
}

// GetAccount handles GET /api/v1/vault/accounts/:address.
func (h *VaultHandler) GetAccount(c *gin.Context) {
	address := c.Param("address")
	ctx := c.Request.Context()

	response.OK(c, dto.AccountResponse{
		Address: address,
		Shares:  formatAmount(h.vaultSvc.SharesOf(ctx, address)),
		Balance: formatAmount(h.vaultSvc.BalanceOf(ctx, address)),
	})
}

// GetStats handles GET /api/v1/vault/stats.
func (h *VaultHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	response.OK(c, dto.VaultStatsResponse{
		TotalShares:   formatAmount(h.vaultSvc.TotalShares(ctx)),
		PricePerShare: formatAmount(h.vaultSvc.PricePerShare(ctx)),
		LiquidBuffer:  formatAmount(h.vaultSvc.LiquidBuffer(ctx)),
		PauseState:    string(h.safetySvc.PauseState()),
	})
}
