package strategy

import (
	"context"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// LendingPoolAdapter supplies to an Aave-style lending pool. Shares track
// supplied principal; interest shows up through a rebasing index, and
// redemptions compete with borrowers for the pool's available liquidity.
type LendingPoolAdapter struct {
	baseAdapter

	principal sdkmath.Int // supplied principal; the share unit
}

// NewLendingPoolAdapter creates a lending pool adapter over client.
func NewLendingPoolAdapter(id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) *LendingPoolAdapter {
	return &LendingPoolAdapter{
		baseAdapter: newBaseAdapter(id, client, staticAPYBps, log),
		principal:   sdkmath.ZeroInt(),
	}
}

// index returns the rebasing interest index scaled by 10^18: the ratio of
// current position value to supplied principal.
func (a *LendingPoolAdapter) index(ctx context.Context) (sdkmath.Int, error) {
	if a.principal.IsZero() {
		return domain.Scale(), nil
	}
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return bal.Mul(domain.Scale()).Quo(a.principal), nil
}

func (a *LendingPoolAdapter) Deposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	if err := a.client.Supply(ctx, amount); err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	// Principal-denominated shares: 1 share == 1 unit supplied.
	a.principal = a.principal.Add(amount)
	return amount, nil
}

func (a *LendingPoolAdapter) Withdraw(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}
	if shares.GT(a.principal) {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientLiquidity()
	}

	idx, err := a.index(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	amount := shares.Mul(idx).Quo(domain.Scale())

	received, err := a.client.Redeem(ctx, amount)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.principal = a.principal.Sub(shares)
	return received, nil
}

func (a *LendingPoolAdapter) SharesForAmount(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	idx, err := a.index(ctx)
	if err != nil {
		return sdkmath.Int{}, classifyProtocolErr(err)
	}
	shares := ceilDiv(amount.Mul(domain.Scale()), idx)
	if shares.GT(a.principal) {
		shares = a.principal
	}
	return shares, nil
}

func (a *LendingPoolAdapter) EmergencyWithdraw(ctx context.Context) (sdkmath.Int, error) {
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	if bal.IsZero() {
		a.principal = sdkmath.ZeroInt()
		return sdkmath.ZeroInt(), nil
	}

	received, err := a.client.Redeem(ctx, bal)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.principal = sdkmath.ZeroInt()
	a.log.Warn().Str("strategy", a.id).Str("received", received.String()).Msg("emergency withdraw from lending pool")
	return received, nil
}
