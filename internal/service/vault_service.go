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

// VaultServiceImpl is the shares-based accounting ledger. All writes go
// through the shared engine lock, which serializes deposits, withdrawals
// and rebalances across services.
type VaultServiceImpl struct {
	engine   *sync.RWMutex
	registry ports.StrategyRegistry
	safety   ports.SafetyService
	audit    ports.AuditService
	log      zerolog.Logger

	accounts     map[string]*domain.ShareAccount
	totalShares  sdkmath.Int
	activeID     string
	liquidBuffer sdkmath.Int
	now          nowFunc
}

// NewVaultService creates the ledger. The engine lock is shared with the
// rebalancer so only one capital-moving operation runs at a time.
func NewVaultService(engine *sync.RWMutex, registry ports.StrategyRegistry, safety ports.SafetyService, audit ports.AuditService, log zerolog.Logger) *VaultServiceImpl {
	return &VaultServiceImpl{
		engine:       engine,
		registry:     registry,
		safety:       safety,
		audit:        audit,
		log:          log,
		accounts:     make(map[string]*domain.ShareAccount),
		totalShares:  sdkmath.ZeroInt(),
		liquidBuffer: sdkmath.ZeroInt(),
		now:          defaultNow,
	}
}

// activeAdapter resolves the currently active strategy. Callers hold the
// engine lock.
func (v *VaultServiceImpl) activeAdapter() (ports.StrategyAdapter, error) {
	if v.activeID == "" {
		return nil, apperror.ErrNoActiveStrategy()
	}
	adapter, _, ok := v.registry.Get(v.activeID)
	if !ok {
		return nil, apperror.ErrNoActiveStrategy()
	}
	return adapter, nil
}

// totalAssets is the vault's full position: every registered adapter's
// holdings plus the liquid buffer. Capital can sit with non-active
// adapters between a strategy switch and the following rebalance.
// TotalAssets on an adapter never fails.
func (v *VaultServiceImpl) totalAssets(ctx context.Context) sdkmath.Int {
	total := v.liquidBuffer
	for _, rec := range v.registry.List() {
		if adapter, _, ok := v.registry.Get(rec.ID); ok {
			total = total.Add(adapter.TotalAssets(ctx))
		}
	}
	return total
}

// Deposit places amount with the active adapter and mints shares. Capital
// placement is confirmed before any shares exist, so a failed placement
// leaves the ledger untouched.
func (v *VaultServiceImpl) Deposit(ctx context.Context, actor string, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}
	if err := v.safety.ValidateTransaction(ctx, actor, amount, domain.TxKindDeposit); err != nil {
		v.audit.Record(ctx, actor, "Deposit", domain.AuditCategoryLedger, depositPayload(amount, sdkmath.ZeroInt()), false, err.Error())
		return sdkmath.ZeroInt(), err
	}

	v.engine.Lock()
	defer v.engine.Unlock()

	adapter, err := v.activeAdapter()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	assetsBefore := v.totalAssets(ctx)

	if _, err := adapter.Deposit(ctx, amount); err != nil {
		v.audit.Record(ctx, actor, "Deposit", domain.AuditCategoryLedger, depositPayload(amount, sdkmath.ZeroInt()), false, err.Error())
		return sdkmath.ZeroInt(), err
	}

	var shares sdkmath.Int
	switch {
	case v.totalShares.IsZero():
		// Bootstrap: the first depositor prices shares 1:1.
		shares = amount
	case !assetsBefore.IsPositive():
		// Shares exist but the vault holds nothing (total loss upstream).
		// Price the new capital 1:1 rather than divide by zero.
		shares = amount
	default:
		shares = amount.Mul(v.totalShares).Quo(assetsBefore)
	}

	acct, ok := v.accounts[actor]
	if !ok {
		acct = domain.NewShareAccount(actor, v.now())
		v.accounts[actor] = acct
	}
	acct.Shares = acct.Shares.Add(shares)
	acct.UpdatedAt = v.now()
	v.totalShares = v.totalShares.Add(shares)

	v.safety.CommitVolume(ctx, actor, amount)
	v.audit.Record(ctx, actor, "Deposit", domain.AuditCategoryLedger, depositPayload(amount, shares), true, "")
	v.log.Info().
		Str("actor", actor).
		Str("amount", domain.FormatAmount(amount)).
		Str("shares", shares.String()).
		Msg("deposit settled")
	return shares, nil
}

// Withdraw burns shares and pays out the proportional amount. Shares are
// burned before the adapter call; any failure or short redemption restores
// them in full, so the caller is never debited for value not received.
func (v *VaultServiceImpl) Withdraw(ctx context.Context, actor string, shares sdkmath.Int) (sdkmath.Int, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	v.engine.Lock()
	defer v.engine.Unlock()

	acct, ok := v.accounts[actor]
	if !ok || shares.GT(acct.Shares) {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientShares()
	}

	// With no active strategy withdrawals can still drain the liquid
	// buffer, which is where emergency unwinds leave the capital.
	adapter, adapterErr := v.activeAdapter()
	if adapterErr != nil && !v.liquidBuffer.IsPositive() {
		return sdkmath.ZeroInt(), adapterErr
	}
	amount := shares.Mul(v.totalAssets(ctx)).Quo(v.totalShares)
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	if err := v.safety.ValidateTransaction(ctx, actor, amount, domain.TxKindWithdraw); err != nil {
		v.audit.Record(ctx, actor, "Withdraw", domain.AuditCategoryLedger, withdrawPayload(shares, sdkmath.ZeroInt()), false, err.Error())
		return sdkmath.ZeroInt(), err
	}

	// Burn first. Every failure path below restores the full burn.
	acct.Shares = acct.Shares.Sub(shares)
	v.totalShares = v.totalShares.Sub(shares)
	restore := func() {
		acct.Shares = acct.Shares.Add(shares)
		v.totalShares = v.totalShares.Add(shares)
	}

	paid, err := v.redeem(ctx, adapter, amount)
	if err != nil {
		restore()
		v.audit.Record(ctx, actor, "Withdraw", domain.AuditCategoryLedger, withdrawPayload(shares, sdkmath.ZeroInt()), false, err.Error())
		return sdkmath.ZeroInt(), err
	}

	acct.UpdatedAt = v.now()
	v.safety.CommitVolume(ctx, actor, paid)
	v.audit.Record(ctx, actor, "Withdraw", domain.AuditCategoryLedger, withdrawPayload(shares, paid), true, "")
	v.log.Info().
		Str("actor", actor).
		Str("shares", shares.String()).
		Str("amount", domain.FormatAmount(paid)).
		Msg("withdrawal settled")
	return paid, nil
}

// redeem sources amount from the liquid buffer first, then the adapter.
// On a short redemption the partial proceeds are returned to the adapter
// (or parked in the buffer if that also fails) and an error comes back so
// the caller can restore the burn.
func (v *VaultServiceImpl) redeem(ctx context.Context, adapter ports.StrategyAdapter, amount sdkmath.Int) (sdkmath.Int, error) {
	if v.liquidBuffer.GTE(amount) {
		v.liquidBuffer = v.liquidBuffer.Sub(amount)
		return amount, nil
	}
	if adapter == nil {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientLiquidity()
	}

	fromBuffer := v.liquidBuffer
	fromAdapter := amount.Sub(fromBuffer)

	adapterShares, err := adapter.SharesForAmount(ctx, fromAdapter)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	received, err := adapter.Withdraw(ctx, adapterShares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if received.LT(fromAdapter) {
		// Short redemption. Undo by putting the proceeds back.
		if received.IsPositive() {
			if _, depErr := adapter.Deposit(ctx, received); depErr != nil {
				v.liquidBuffer = v.liquidBuffer.Add(received)
				v.log.Error().Err(depErr).
					Str("received", domain.FormatAmount(received)).
					Msg("could not return short redemption to adapter, parked in buffer")
			}
		}
		return sdkmath.ZeroInt(), apperror.ErrWithdrawalFailed(fmt.Errorf(
			"adapter redeemed %s of requested %s",
			domain.FormatAmount(received), domain.FormatAmount(fromAdapter)))
	}

	v.liquidBuffer = sdkmath.ZeroInt()
	// Ceil share conversion can over-redeem slightly; the excess stays in
	// the vault as buffer rather than leaking to the caller.
	if received.GT(fromAdapter) {
		v.liquidBuffer = received.Sub(fromAdapter)
	}
	return amount, nil
}

// BalanceOf returns the underlying value of actor's shares.
func (v *VaultServiceImpl) BalanceOf(ctx context.Context, actor string) sdkmath.Int {
	v.engine.RLock()
	defer v.engine.RUnlock()

	acct, ok := v.accounts[actor]
	if !ok || v.totalShares.IsZero() {
		return sdkmath.ZeroInt()
	}
	return acct.Shares.Mul(v.totalAssets(ctx)).Quo(v.totalShares)
}

// SharesOf returns actor's raw share balance.
func (v *VaultServiceImpl) SharesOf(ctx context.Context, actor string) sdkmath.Int {
	v.engine.RLock()
	defer v.engine.RUnlock()

	acct, ok := v.accounts[actor]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return acct.Shares
}

// PricePerShare is computed fresh from live adapter state. An empty vault
// prices at 1.0 so the first depositor mints 1:1.
func (v *VaultServiceImpl) PricePerShare(ctx context.Context) sdkmath.Int {
	v.engine.RLock()
	defer v.engine.RUnlock()

	if v.totalShares.IsZero() {
		return domain.Scale()
	}
	return v.totalAssets(ctx).Mul(domain.Scale()).Quo(v.totalShares)
}

// TotalShares returns the outstanding share supply.
func (v *VaultServiceImpl) TotalShares(ctx context.Context) sdkmath.Int {
	v.engine.RLock()
	defer v.engine.RUnlock()
	return v.totalShares
}

// SetStrategy redirects future deposits to strategyID. It moves no funds:
// capital already placed with the outgoing adapter stays there until a
// rebalance. Admin-only.
func (v *VaultServiceImpl) SetStrategy(ctx context.Context, actor string, strategyID string) error {
	if err := v.safety.RequireAdmin(actor); err != nil {
		return err
	}

	v.engine.Lock()
	defer v.engine.Unlock()

	_, record, ok := v.registry.Get(strategyID)
	if !ok {
		return apperror.ErrInvalidStrategy(strategyID)
	}
	if !record.Healthy {
		return apperror.ErrInvalidStrategy(strategyID)
	}

	prev := v.activeID
	if prev != "" {
		v.registry.SetActive(prev, false)
	}
	v.registry.SetActive(strategyID, true)
	v.activeID = strategyID

	v.audit.Record(ctx, actor, "SetStrategy", domain.AuditCategoryStrategy, fmt.Sprintf(`{"from":%q,"to":%q}`, prev, strategyID), true, "")
	v.log.Info().Str("from", prev).Str("to", strategyID).Msg("active strategy switched")
	return nil
}

// EmergencyWithdraw unwinds strategyID's entire position into the liquid
// buffer. Admin-only and allowed while paused.
func (v *VaultServiceImpl) EmergencyWithdraw(ctx context.Context, actor string, strategyID string) (sdkmath.Int, error) {
	if err := v.safety.RequireAdmin(actor); err != nil {
		return sdkmath.ZeroInt(), err
	}

	v.engine.Lock()
	defer v.engine.Unlock()

	adapter, _, ok := v.registry.Get(strategyID)
	if !ok {
		return sdkmath.ZeroInt(), apperror.ErrInvalidStrategy(strategyID)
	}

	recovered, err := adapter.EmergencyWithdraw(ctx)
	if err != nil {
		v.audit.Record(ctx, actor, "EmergencyWithdraw", domain.AuditCategoryLedger, fmt.Sprintf(`{"strategy":%q}`, strategyID), false, err.Error())
		return sdkmath.ZeroInt(), apperror.ErrWithdrawalFailed(err)
	}

	v.liquidBuffer = v.liquidBuffer.Add(recovered)
	if v.activeID == strategyID {
		v.registry.SetActive(strategyID, false)
		v.activeID = ""
	}

	v.audit.Record(ctx, actor, "EmergencyWithdraw", domain.AuditCategoryLedger, fmt.Sprintf(`{"strategy":%q,"recovered":%q}`, strategyID, domain.FormatAmount(recovered)), true, "")
	v.log.Warn().
		Str("strategy", strategyID).
		Str("recovered", domain.FormatAmount(recovered)).
		Msg("emergency withdrawal completed")
	return recovered, nil
}

// LiquidBuffer returns crisis funds held outside any adapter.
func (v *VaultServiceImpl) LiquidBuffer(ctx context.Context) sdkmath.Int {
	v.engine.RLock()
	defer v.engine.RUnlock()
	return v.liquidBuffer
}

func depositPayload(amount, shares sdkmath.Int) string {
	return fmt.Sprintf(`{"amount":%q,"shares":%q}`, domain.FormatAmount(amount), shares.String())
}

func withdrawPayload(shares, amount sdkmath.Int) string {
	return fmt.Sprintf(`{"shares":%q,"amount":%q}`, shares.String(), domain.FormatAmount(amount))
}
