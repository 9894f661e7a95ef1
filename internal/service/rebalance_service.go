package service

import (
	"context"
	"fmt"
	"sync"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// RebalanceServiceImpl moves capital between two adapters as one atomic
// operation under the shared engine lock. A failed destination deposit is
// compensated by re-depositing into the source, so funds are never left
// outside both adapters.
type RebalanceServiceImpl struct {
	engine   *sync.RWMutex
	registry ports.StrategyRegistry
	safety   ports.SafetyService
	audit    ports.AuditService
	vault    *VaultServiceImpl
	log      zerolog.Logger
	now      nowFunc
}

// NewRebalanceService creates the rebalancer. It shares the engine lock
// and the liquid buffer with the vault ledger.
func NewRebalanceService(engine *sync.RWMutex, registry ports.StrategyRegistry, safety ports.SafetyService, audit ports.AuditService, vault *VaultServiceImpl, log zerolog.Logger) *RebalanceServiceImpl {
	return &RebalanceServiceImpl{
		engine:   engine,
		registry: registry,
		safety:   safety,
		audit:    audit,
		vault:    vault,
		log:      log,
		now:      defaultNow,
	}
}

// Rebalance withdraws req.Amount from the source adapter and deposits the
// actually-received proceeds into the destination. Admin-only.
func (r *RebalanceServiceImpl) Rebalance(ctx context.Context, actor string, req domain.RebalanceRequest) (*domain.RebalanceReceipt, error) {
	if err := r.safety.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.Amount.IsNil() || !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromID == req.ToID {
		return nil, apperror.ErrRebalanceFailed(fmt.Errorf("source and destination are the same strategy %q", req.FromID))
	}
	if !req.Deadline.IsZero() && r.now().After(req.Deadline) {
		return nil, apperror.ErrRebalanceFailed(fmt.Errorf("deadline %s has passed", req.Deadline.Format("2006-01-02T15:04:05Z07:00")))
	}
	if err := r.safety.ValidateTransaction(ctx, actor, req.Amount, domain.TxKindRebalance); err != nil {
		return nil, err
	}

	r.engine.Lock()
	defer r.engine.Unlock()

	from, fromRecord, ok := r.registry.Get(req.FromID)
	if !ok {
		return nil, apperror.ErrInvalidStrategy(req.FromID)
	}
	to, toRecord, ok := r.registry.Get(req.ToID)
	if !ok {
		return nil, apperror.ErrInvalidStrategy(req.ToID)
	}
	// Both sides must be healthy. Draining a degraded adapter goes
	// through EmergencyWithdraw instead, which pays into the buffer.
	if !fromRecord.Healthy {
		return nil, apperror.ErrInvalidStrategy(req.FromID)
	}
	if !toRecord.Healthy {
		return nil, apperror.ErrInvalidStrategy(req.ToID)
	}

	if from.TotalAssets(ctx).LT(req.Amount) {
		return nil, apperror.ErrInsufficientLiquidity()
	}

	shares, err := from.SharesForAmount(ctx, req.Amount)
	if err != nil {
		return nil, r.fail(ctx, actor, req, err)
	}
	received, err := from.Withdraw(ctx, shares)
	if err != nil {
		return nil, r.fail(ctx, actor, req, err)
	}
	if !req.MinOutput.IsNil() && received.LT(req.MinOutput) {
		r.compensate(ctx, from, received)
		return nil, r.fail(ctx, actor, req, fmt.Errorf(
			"source returned %s, below minimum output %s",
			domain.FormatAmount(received), domain.FormatAmount(req.MinOutput)))
	}

	if _, err := to.Deposit(ctx, received); err != nil {
		r.compensate(ctx, from, received)
		return nil, r.fail(ctx, actor, req, err)
	}

	receipt := &domain.RebalanceReceipt{
		FromID:        req.FromID,
		ToID:          req.ToID,
		Requested:     req.Amount,
		Moved:         received,
		ExecutionCost: req.Amount.Sub(received),
		CompletedAt:   r.now(),
	}

	r.safety.CommitVolume(ctx, actor, received)
	r.audit.Record(ctx, actor, "Rebalance", domain.AuditCategoryRebalance,
		fmt.Sprintf(`{"from":%q,"to":%q,"requested":%q,"moved":%q}`,
			req.FromID, req.ToID, domain.FormatAmount(req.Amount), domain.FormatAmount(received)),
		true, "")
	r.log.Info().
		Str("from", req.FromID).
		Str("to", req.ToID).
		Str("moved", domain.FormatAmount(received)).
		Str("cost", domain.FormatAmount(receipt.ExecutionCost)).
		Msg("rebalance completed")
	return receipt, nil
}

// compensate returns withdrawn proceeds to the source adapter. If even
// that fails the funds are parked in the vault's liquid buffer so nothing
// is stranded.
func (r *RebalanceServiceImpl) compensate(ctx context.Context, from ports.StrategyAdapter, received sdkmath.Int) {
	if !received.IsPositive() {
		return
	}
	if _, err := from.Deposit(ctx, received); err != nil {
		r.vault.liquidBuffer = r.vault.liquidBuffer.Add(received)
		r.log.Error().Err(err).
			Str("amount", domain.FormatAmount(received)).
			Msg("compensating re-deposit failed, funds parked in liquid buffer")
	}
}

func (r *RebalanceServiceImpl) fail(ctx context.Context, actor string, req domain.RebalanceRequest, cause error) error {
	err := apperror.ErrRebalanceFailed(cause)
	r.audit.Record(ctx, actor, "Rebalance", domain.AuditCategoryRebalance,
		fmt.Sprintf(`{"from":%q,"to":%q,"requested":%q}`, req.FromID, req.ToID, domain.FormatAmount(req.Amount)),
		false, cause.Error())
	return err
}
