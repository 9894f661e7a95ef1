package strategy

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
)

const bpsDenom = 10_000

// SimProtocol is a deterministic in-process ProtocolClient used for local
// mode and tests. It models a supplied balance that accrues yield on
// demand, an optional redemption fee, a liquidity ceiling and injectable
// failures.
type SimProtocol struct {
	mu sync.Mutex

	balance   sdkmath.Int
	rateBps   int64
	feeBps    int64       // redemption fee
	liquidity sdkmath.Int // max redeemable; negative = unlimited

	supplyErr  error
	redeemErr  error
	balanceErr error
	rateErr    error
	pingErr    error
}

// SimError is an injectable protocol failure with a transience hint.
type SimError struct {
	Code      int
	Retryable bool
}

func (e *SimError) Error() string   { return fmt.Sprintf("protocol returned code %d", e.Code) }
func (e *SimError) Transient() bool { return e.Retryable }

// NewSimProtocol creates a simulated protocol with the given supply rate.
func NewSimProtocol(rateBps int64) *SimProtocol {
	return &SimProtocol{
		balance:   sdkmath.ZeroInt(),
		rateBps:   rateBps,
		liquidity: sdkmath.NewInt(-1),
	}
}

func (p *SimProtocol) Supply(ctx context.Context, amount sdkmath.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.supplyErr != nil {
		return p.supplyErr
	}
	p.balance = p.balance.Add(amount)
	return nil
}

func (p *SimProtocol) Redeem(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.redeemErr != nil {
		return sdkmath.ZeroInt(), p.redeemErr
	}
	if amount.GT(p.balance) {
		return sdkmath.ZeroInt(), ErrNoLiquidity
	}
	if !p.liquidity.IsNegative() && amount.GT(p.liquidity) {
		return sdkmath.ZeroInt(), ErrNoLiquidity
	}
	p.balance = p.balance.Sub(amount)
	received := amount.MulRaw(bpsDenom - p.feeBps).QuoRaw(bpsDenom)
	return received, nil
}

func (p *SimProtocol) Balance(ctx context.Context) (sdkmath.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balanceErr != nil {
		return sdkmath.ZeroInt(), p.balanceErr
	}
	return p.balance, nil
}

func (p *SimProtocol) RatePerYearBps(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rateErr != nil {
		return 0, p.rateErr
	}
	return p.rateBps, nil
}

func (p *SimProtocol) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pingErr
}

// Accrue adds yield to the supplied balance, as if time had passed.
func (p *SimProtocol) Accrue(amount sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance = p.balance.Add(amount)
}

// SetRateBps sets the advertised yearly rate in basis points.
func (p *SimProtocol) SetRateBps(rate int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rateBps = rate
}

// SetFeeBps sets the redemption fee in basis points.
func (p *SimProtocol) SetFeeBps(fee int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feeBps = fee
}

// SetLiquidity caps the redeemable amount. A negative cap means unlimited.
func (p *SimProtocol) SetLiquidity(cap sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liquidity = cap
}

// FailSupply injects a supply failure. Pass nil to clear.
func (p *SimProtocol) FailSupply(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supplyErr = err
}

// FailRedeem injects a redemption failure. Pass nil to clear.
func (p *SimProtocol) FailRedeem(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redeemErr = err
}

// FailBalance injects a valuation failure. Pass nil to clear.
func (p *SimProtocol) FailBalance(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceErr = err
}

// FailRate injects a rate oracle failure. Pass nil to clear.
func (p *SimProtocol) FailRate(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rateErr = err
}

// FailPing injects a liveness failure. Pass nil to clear.
func (p *SimProtocol) FailPing(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingErr = err
}
