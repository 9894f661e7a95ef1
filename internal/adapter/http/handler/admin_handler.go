package handler

import (
	"time"

	"yield-vault-engine/internal/adapter/http/dto"
	"yield-vault-engine/internal/adapter/http/middleware"
	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/internal/strategy"
	"yield-vault-engine/pkg/apperror"
	"yield-vault-engine/pkg/response"

	sdkmath "cosmossdk.io/math"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminHandler handles the JWT-protected operator surface: strategy
// management, rebalancing, pause control, access lists and multisig
// proposals.
type AdminHandler struct {
	vaultSvc     ports.VaultService
	rebalanceSvc ports.RebalanceService
	registry     ports.StrategyRegistry
	safetySvc    ports.SafetyService
	log          zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	vaultSvc ports.VaultService,
	rebalanceSvc ports.RebalanceService,
	registry ports.StrategyRegistry,
	safetySvc ports.SafetyService,
	log zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		vaultSvc:     vaultSvc,
		rebalanceSvc: rebalanceSvc,
		registry:     registry,
		safetySvc:    safetySvc,
		log:          log,
	}
}

// actor returns the operator key id set by the JWT middleware.
func actor(c *gin.Context) string {
	return c.GetString(middleware.CtxKeyID)
}

func domainAmount(s string) (sdkmath.Int, error) {
	amount, err := domain.ParseAmount(s)
	if err != nil {
		return sdkmath.Int{}, apperror.Validation(err.Error())
	}
	return amount, nil
}

func formatAmount(amount sdkmath.Int) string {
	return domain.FormatAmount(amount)
}

// ListStrategies handles GET /api/v1/admin/strategies.
func (h *AdminHandler) ListStrategies(c *gin.Context) {
	records := h.registry.List()
	out := make([]dto.StrategyResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.StrategyResponse{
			ID:           rec.ID,
			Protocol:     rec.Protocol,
			Kind:         string(rec.Kind),
			Asset:        rec.Asset,
			RiskTier:     rec.RiskTier,
			Healthy:      rec.Healthy,
			Active:       rec.Active,
			CachedAssets: formatAmount(rec.CachedAssets),
			CachedAPYBps: rec.CachedAPYBps,
		})
	}
	response.OK(c, out)
}

// RegisterStrategy handles POST /api/v1/admin/strategies. It builds a
// simulator-backed adapter; live protocol connectors are registered at
// startup, not over HTTP.
func (h *AdminHandler) RegisterStrategy(c *gin.Context) {
	var req dto.RegisterStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	proto := strategy.NewSimProtocol(req.RateBps)
	adapter, err := strategy.New(domain.StrategyKind(req.Kind), req.ID, proto, req.StaticAPYBps, h.log)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	record := domain.StrategyRecord{
		ID:       req.ID,
		Protocol: req.Protocol,
		Kind:     domain.StrategyKind(req.Kind),
		Asset:    req.Asset,
		RiskTier: req.RiskTier,
	}
	if err := h.registry.Register(c.Request.Context(), actor(c), adapter, record); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": req.ID})
}

// DeregisterStrategy handles DELETE /api/v1/admin/strategies/:id.
func (h *AdminHandler) DeregisterStrategy(c *gin.Context) {
	if err := h.registry.Deregister(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

// ActivateStrategy handles POST /api/v1/admin/strategies/:id/activate.
func (h *AdminHandler) ActivateStrategy(c *gin.Context) {
	if err := h.vaultSvc.SetStrategy(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"active_strategy": c.Param("id")})
}

// Rebalance handles POST /api/v1/admin/rebalance.
func (h *AdminHandler) Rebalance(c *gin.Context) {
	var req dto.RebalanceRequest
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

	domainReq := domain.RebalanceRequest{
		FromID: req.FromID,
		ToID:   req.ToID,
		Amount: amount,
	}
	if req.MinOutput != nil {
		minOut, err := domainAmount(*req.MinOutput)
		if err != nil {
			response.Error(c, err)
			return
		}
		domainReq.MinOutput = minOut
	}
	if req.Deadline != nil {
		domainReq.Deadline = time.Unix(*req.Deadline, 0).UTC()
	}

	receipt, err := h.rebalanceSvc.Rebalance(c.Request.Context(), actor(c), domainReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.RebalanceResponse{
		FromID:        receipt.FromID,
		ToID:          receipt.ToID,
		Requested:     formatAmount(receipt.Requested),
		Moved:         formatAmount(receipt.Moved),
		ExecutionCost: formatAmount(receipt.ExecutionCost),
		CompletedAt:   receipt.CompletedAt.Format(time.RFC3339),
	})
}

// EmergencyWithdraw handles POST /api/v1/admin/strategies/:id/emergency-withdraw.
func (h *AdminHandler) EmergencyWithdraw(c *gin.Context) {
	recovered, err := h.vaultSvc.EmergencyWithdraw(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.EmergencyWithdrawResponse{Recovered: formatAmount(recovered)})
}

// Pause handles POST /api/v1/admin/pause.
func (h *AdminHandler) Pause(c *gin.Context) {
	var req dto.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.safetySvc.ActivateEmergencyPause(c.Request.Context(), actor(c), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"pause_state": string(h.safetySvc.PauseState())})
}

// Unpause handles POST /api/v1/admin/unpause.
func (h *AdminHandler) Unpause(c *gin.Context) {
	if err := h.safetySvc.DeactivatePause(c.Request.Context(), actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"pause_state": string(h.safetySvc.PauseState())})
}

// PermanentPause handles POST /api/v1/admin/permanent-pause.
func (h *AdminHandler) PermanentPause(c *gin.Context) {
	var req dto.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.safetySvc.ActivatePermanentPause(c.Request.Context(), actor(c), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"pause_state": string(h.safetySvc.PauseState())})
}

// Blacklist handles POST /api/v1/admin/blacklist.
func (h *AdminHandler) Blacklist(c *gin.Context) {
	var req dto.ListEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.safetySvc.Blacklist(c.Request.Context(), actor(c), req.Address, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"address": req.Address})
}

// Whitelist handles POST /api/v1/admin/whitelist.
func (h *AdminHandler) Whitelist(c *gin.Context) {
	var req dto.ListEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.safetySvc.Whitelist(c.Request.Context(), actor(c), req.Address, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"address": req.Address})
}

// CreateProposal handles POST /api/v1/admin/proposals.
func (h *AdminHandler) CreateProposal(c *gin.Context) {
	var req dto.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	id, err := h.safetySvc.ProposeAction(c.Request.Context(), actor(c), domain.ProposalAction(req.Action), req.Payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	proposal, _ := h.safetySvc.GetProposal(id)
	response.Created(c, toProposalResponse(proposal))
}

// ApproveProposal handles POST /api/v1/admin/proposals/:id/approve.
func (h *AdminHandler) ApproveProposal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid proposal id"))
		return
	}

	proposal, err := h.safetySvc.Approve(c.Request.Context(), actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toProposalResponse(proposal))
}

// GetProposal handles GET /api/v1/admin/proposals/:id.
func (h *AdminHandler) GetProposal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid proposal id"))
		return
	}

	proposal, ok := h.safetySvc.GetProposal(id)
	if !ok {
		response.Error(c, apperror.ErrProposalNotFound(id.String()))
		return
	}
	response.OK(c, toProposalResponse(proposal))
}

func toProposalResponse(p *domain.Proposal) dto.ProposalResponse {
	if p == nil {
		return dto.ProposalResponse{}
	}
	return dto.ProposalResponse{
		ID:        p.ID.String(),
		Action:    string(p.Action),
		Payload:   p.Payload,
		Proposer:  p.Proposer,
		Approvals: p.ApprovalCount(),
		Threshold: p.Threshold,
		Executed:  p.Executed,
		Deadline:  p.Deadline.Format(time.RFC3339),
	}
}
