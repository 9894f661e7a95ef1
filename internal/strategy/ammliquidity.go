package strategy

import (
	"context"

	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// AMMLiquidityAdapter provides single-sided liquidity to an AMM pool.
// The adapter holds LP shares; their value follows the pool's reserves,
// which include swap fees earned by the position. Exits may pay a pool
// exit fee, reported as execution cost by the rebalancer.
type AMMLiquidityAdapter struct {
	baseAdapter

	lpShares sdkmath.Int // LP tokens held in the pool
	lpSupply sdkmath.Int // tracked pool LP supply for proportional math
}

// NewAMMLiquidityAdapter creates an AMM liquidity-provision adapter.
func NewAMMLiquidityAdapter(id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) *AMMLiquidityAdapter {
	return &AMMLiquidityAdapter{
		baseAdapter: newBaseAdapter(id, client, staticAPYBps, log),
		lpShares:    sdkmath.ZeroInt(),
		lpSupply:    sdkmath.ZeroInt(),
	}
}

func (a *AMMLiquidityAdapter) Deposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	// Pool value before the join determines the proportional LP mint.
	var poolValue sdkmath.Int
	if !a.lpSupply.IsZero() {
		bal, err := a.client.Balance(ctx)
		if err != nil {
			return sdkmath.ZeroInt(), classifyProtocolErr(err)
		}
		poolValue = bal
	}

	if err := a.client.Supply(ctx, amount); err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	var minted sdkmath.Int
	if a.lpSupply.IsZero() {
		minted = amount
	} else {
		minted = amount.Mul(a.lpSupply).Quo(poolValue)
	}
	a.lpShares = a.lpShares.Add(minted)
	a.lpSupply = a.lpSupply.Add(minted)

	a.log.Debug().Str("strategy", a.id).Str("amount", amount.String()).Str("lp_minted", minted.String()).Msg("joined pool")
	return minted, nil
}

func (a *AMMLiquidityAdapter) Withdraw(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}
	if shares.GT(a.lpShares) {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientLiquidity()
	}

	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	amount := shares.Mul(bal).Quo(a.lpSupply)

	received, err := a.client.Redeem(ctx, amount)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.lpShares = a.lpShares.Sub(shares)
	a.lpSupply = a.lpSupply.Sub(shares)
	return received, nil
}

func (a *AMMLiquidityAdapter) SharesForAmount(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if a.lpSupply.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.Int{}, classifyProtocolErr(err)
	}
	if bal.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	shares := ceilDiv(amount.Mul(a.lpSupply), bal)
	if shares.GT(a.lpShares) {
		shares = a.lpShares
	}
	return shares, nil
}

func (a *AMMLiquidityAdapter) EmergencyWithdraw(ctx context.Context) (sdkmath.Int, error) {
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	if bal.IsZero() {
		a.lpShares = sdkmath.ZeroInt()
		a.lpSupply = sdkmath.ZeroInt()
		return sdkmath.ZeroInt(), nil
	}

	// Exit the full position in one call.
	amount := a.lpShares.Mul(bal).Quo(a.lpSupply)
	received, err := a.client.Redeem(ctx, amount)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.lpSupply = a.lpSupply.Sub(a.lpShares)
	a.lpShares = sdkmath.ZeroInt()
	a.log.Warn().Str("strategy", a.id).Str("received", received.String()).Msg("emergency exit from pool")
	return received, nil
}
