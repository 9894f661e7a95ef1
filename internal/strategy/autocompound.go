package strategy

import (
	"context"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// AutoCompoundAdapter wraps an auto-compounding vault (PancakeSwap-style).
// The wrapped vault reinvests harvested rewards, so the internal share
// price only grows; the adapter mints vault shares at the current price.
type AutoCompoundAdapter struct {
	baseAdapter

	vaultShares sdkmath.Int
}

// NewAutoCompoundAdapter creates an auto-compounding vault adapter.
func NewAutoCompoundAdapter(id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) *AutoCompoundAdapter {
	return &AutoCompoundAdapter{
		baseAdapter: newBaseAdapter(id, client, staticAPYBps, log),
		vaultShares: sdkmath.ZeroInt(),
	}
}

// sharePrice returns the wrapped vault's share price scaled by 10^18.
func (a *AutoCompoundAdapter) sharePrice(ctx context.Context) (sdkmath.Int, error) {
	if a.vaultShares.IsZero() {
		return domain.Scale(), nil
	}
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return bal.Mul(domain.Scale()).Quo(a.vaultShares), nil
}

func (a *AutoCompoundAdapter) Deposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	price, err := a.sharePrice(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	if err := a.client.Supply(ctx, amount); err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	minted := amount.Mul(domain.Scale()).Quo(price)
	a.vaultShares = a.vaultShares.Add(minted)
	return minted, nil
}

func (a *AutoCompoundAdapter) Withdraw(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}
	if shares.GT(a.vaultShares) {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientLiquidity()
	}

	price, err := a.sharePrice(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	amount := shares.Mul(price).Quo(domain.Scale())

	received, err := a.client.Redeem(ctx, amount)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.vaultShares = a.vaultShares.Sub(shares)
	return received, nil
}

func (a *AutoCompoundAdapter) SharesForAmount(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	price, err := a.sharePrice(ctx)
	if err != nil {
		return sdkmath.Int{}, classifyProtocolErr(err)
	}
	shares := ceilDiv(amount.Mul(domain.Scale()), price)
	if shares.GT(a.vaultShares) {
		shares = a.vaultShares
	}
	return shares, nil
}

func (a *AutoCompoundAdapter) EmergencyWithdraw(ctx context.Context) (sdkmath.Int, error) {
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	if bal.IsZero() {
		a.vaultShares = sdkmath.ZeroInt()
		return sdkmath.ZeroInt(), nil
	}

	received, err := a.client.Redeem(ctx, bal)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.vaultShares = sdkmath.ZeroInt()
	a.log.Warn().Str("strategy", a.id).Str("received", received.String()).Msg("emergency withdraw from compounding vault")
	return received, nil
}
