package strategy

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// baseAdapter carries the behavior shared by every adapter variant:
// identity, the valuation cache fallback, the APY fallback and the
// liveness probe. Variants embed it and add their own share accounting.
type baseAdapter struct {
	id           string
	client       ProtocolClient
	staticAPYBps int64 // conservative fallback when the rate oracle is down
	log          zerolog.Logger

	cacheMu      sync.Mutex
	cachedAssets sdkmath.Int
	hasCache     bool
}

func newBaseAdapter(id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) baseAdapter {
	return baseAdapter{
		id:           id,
		client:       client,
		staticAPYBps: staticAPYBps,
		log:          log,
		cachedAssets: sdkmath.ZeroInt(),
	}
}

func (b *baseAdapter) ID() string {
	return b.id
}

// TotalAssets never fails the call path: a live valuation failure falls
// back to the last-known cached value, and to zero when nothing was ever
// computable.
func (b *baseAdapter) TotalAssets(ctx context.Context) sdkmath.Int {
	bal, err := b.client.Balance(ctx)
	if err != nil {
		b.cacheMu.Lock()
		defer b.cacheMu.Unlock()
		if b.hasCache {
			b.log.Warn().Err(err).Str("strategy", b.id).Msg("live valuation failed, using cached value")
			return b.cachedAssets
		}
		b.log.Warn().Err(err).Str("strategy", b.id).Msg("live valuation failed, no cached value")
		return sdkmath.ZeroInt()
	}

	b.cacheMu.Lock()
	b.cachedAssets = bal
	b.hasCache = true
	b.cacheMu.Unlock()
	return bal
}

func (b *baseAdapter) EstimatedAPY(ctx context.Context) int64 {
	bps, err := b.client.RatePerYearBps(ctx)
	if err != nil {
		b.log.Warn().Err(err).Str("strategy", b.id).Msg("rate oracle unavailable, using static estimate")
		return b.staticAPYBps
	}
	return bps
}

func (b *baseAdapter) IsHealthy(ctx context.Context) bool {
	return b.client.Ping(ctx) == nil
}

// ceilDiv returns ceil(a / b) for positive b.
func ceilDiv(a, b sdkmath.Int) sdkmath.Int {
	q := a.Quo(b)
	if !a.Sub(q.Mul(b)).IsZero() {
		q = q.AddRaw(1)
	}
	return q
}
