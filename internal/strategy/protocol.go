package strategy

import (
	"context"
	"errors"

	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
)

// ProtocolClient is the wire boundary to one wrapped yield protocol. Each
// adapter variant owns exactly one client; the engine never assumes
// protocol-specific semantics beyond this surface.
type ProtocolClient interface {
	// Supply places amount of the underlying asset with the protocol.
	Supply(ctx context.Context, amount sdkmath.Int) error

	// Redeem withdraws amount of underlying from the protocol, returning
	// the amount actually received after protocol fees.
	Redeem(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)

	// Balance returns the current underlying value of the position,
	// including accrued yield.
	Balance(ctx context.Context) (sdkmath.Int, error)

	// RatePerYearBps returns the protocol's current supply rate in basis
	// points.
	RatePerYearBps(ctx context.Context) (int64, error)

	// Ping is a cheap liveness probe.
	Ping(ctx context.Context) error
}

// ErrNoLiquidity is returned by a ProtocolClient when the protocol cannot
// honor the full redemption.
var ErrNoLiquidity = errors.New("protocol: insufficient liquidity")

// transientError marks protocol failures a caller may retry with backoff.
type transientError interface {
	Transient() bool
}

// classifyProtocolErr maps an opaque protocol failure onto the engine's
// error taxonomy, preserving the original diagnostic.
func classifyProtocolErr(err error) error {
	if errors.Is(err, ErrNoLiquidity) {
		return apperror.ErrInsufficientLiquidity()
	}
	var te transientError
	if errors.As(err, &te) {
		return apperror.ErrProtocolError(err, te.Transient())
	}
	return apperror.ErrProtocolError(err, false)
}
