package strategy

import (
	"context"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// MoneyMarketAdapter wraps a Venus-style money market. Deposits mint
// protocol tokens at the current exchange rate; the rate rises as the
// market accrues interest, so the same tokens redeem for more underlying
// over time.
type MoneyMarketAdapter struct {
	baseAdapter

	tokens sdkmath.Int // protocol tokens held (cToken analogue)
}

// NewMoneyMarketAdapter creates a money market adapter over client.
func NewMoneyMarketAdapter(id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) *MoneyMarketAdapter {
	return &MoneyMarketAdapter{
		baseAdapter: newBaseAdapter(id, client, staticAPYBps, log),
		tokens:      sdkmath.ZeroInt(),
	}
}

// exchangeRate returns the underlying value of one protocol token, scaled
// by 10^18. A fresh market starts at 1.0.
func (a *MoneyMarketAdapter) exchangeRate(ctx context.Context) (sdkmath.Int, error) {
	if a.tokens.IsZero() {
		return domain.Scale(), nil
	}
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return bal.Mul(domain.Scale()).Quo(a.tokens), nil
}

func (a *MoneyMarketAdapter) Deposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}

	rate, err := a.exchangeRate(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	if err := a.client.Supply(ctx, amount); err != nil {
		// No partial credit: token balance is untouched on failure.
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	minted := amount.Mul(domain.Scale()).Quo(rate)
	a.tokens = a.tokens.Add(minted)

	a.log.Debug().Str("strategy", a.id).Str("amount", amount.String()).Str("minted", minted.String()).Msg("money market deposit")
	return minted, nil
}

func (a *MoneyMarketAdapter) Withdraw(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), apperror.ErrInvalidAmount()
	}
	if shares.GT(a.tokens) {
		return sdkmath.ZeroInt(), apperror.ErrInsufficientLiquidity()
	}

	rate, err := a.exchangeRate(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	amount := shares.Mul(rate).Quo(domain.Scale())

	received, err := a.client.Redeem(ctx, amount)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.tokens = a.tokens.Sub(shares)
	return received, nil
}

func (a *MoneyMarketAdapter) SharesForAmount(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	rate, err := a.exchangeRate(ctx)
	if err != nil {
		return sdkmath.Int{}, classifyProtocolErr(err)
	}
	shares := ceilDiv(amount.Mul(domain.Scale()), rate)
	if shares.GT(a.tokens) {
		shares = a.tokens
	}
	return shares, nil
}

func (a *MoneyMarketAdapter) EmergencyWithdraw(ctx context.Context) (sdkmath.Int, error) {
	bal, err := a.client.Balance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}
	if bal.IsZero() {
		a.tokens = sdkmath.ZeroInt()
		return sdkmath.ZeroInt(), nil
	}

	received, err := a.client.Redeem(ctx, bal)
	if err != nil {
		return sdkmath.ZeroInt(), classifyProtocolErr(err)
	}

	a.tokens = sdkmath.ZeroInt()
	a.log.Warn().Str("strategy", a.id).Str("received", received.String()).Msg("emergency withdraw unwound full position")
	return received, nil
}
