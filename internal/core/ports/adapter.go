package ports

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// StrategyAdapter is the uniform contract over one external yield source.
// Implementations convert deposits/withdrawals into protocol-specific calls
// and report value and yield. All amounts are 10^18 fixed-point integers of
// the adapter's underlying asset.
type StrategyAdapter interface {
	// ID returns the adapter's registry identity.
	ID() string

	// Deposit places amount into the wrapped protocol and returns the
	// adapter-internal shares credited. On protocol failure it returns a
	// ProtocolError and leaves adapter state unchanged (no partial credit).
	Deposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)

	// Withdraw burns adapter-internal shares and redeems from the wrapped
	// protocol, returning the amount actually received. Returns
	// InsufficientLiquidity if the protocol cannot honor the full redemption.
	Withdraw(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error)

	// SharesForAmount converts an underlying-asset amount into the internal
	// shares that must be burned to redeem it, rounding so that redeeming
	// the returned shares yields at least amount.
	SharesForAmount(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)

	// TotalAssets returns a best-effort live valuation of everything the
	// adapter holds, in underlying-asset units. It never fails: when the
	// live value cannot be computed it falls back to the last-known cached
	// valuation, and to zero when no value was ever computable.
	TotalAssets(ctx context.Context) sdkmath.Int

	// EstimatedAPY returns the wrapped protocol's current yield rate in
	// basis points, falling back to a conservative static estimate when the
	// protocol's rate oracle is unavailable.
	EstimatedAPY(ctx context.Context) int64

	// IsHealthy is a cheap liveness probe. It must not mutate state.
	IsHealthy(ctx context.Context) bool

	// EmergencyWithdraw unwinds the adapter's entire position regardless of
	// normal accounting. Privileged: callers enforce adapter-admin access.
	EmergencyWithdraw(ctx context.Context) (sdkmath.Int, error)
}
