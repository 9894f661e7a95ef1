package domain

import (
	"fmt"
	"math"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Monetary amounts and share balances are unsigned fixed-point integers
// scaled by 10^18, matching token-accounting convention. Daily volume
// counters are tracked at micro-unit (10^-6 asset) granularity so they fit
// the int64 counters of the volume store.
const (
	AmountDecimals = 18
	MicroDecimals  = 12 // 10^18 / 10^12 = micro units
)

// Scale returns the fixed-point scale factor 10^18 (price-per-share of 1.0).
func Scale() sdkmath.Int {
	return sdkmath.NewIntWithDecimal(1, AmountDecimals)
}

// ZeroAmount returns the zero fixed-point amount.
func ZeroAmount() sdkmath.Int {
	return sdkmath.ZeroInt()
}

// NewAmount converts whole asset units into the 10^18 fixed-point form.
func NewAmount(units int64) sdkmath.Int {
	return sdkmath.NewInt(units).Mul(Scale())
}

// ParseAmount converts a decimal string of whole asset units (e.g. "1500",
// "0.25") into the 10^18 fixed-point form. At most 18 fractional digits.
func ParseAmount(s string) (sdkmath.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > AmountDecimals {
		return sdkmath.Int{}, fmt.Errorf("amount %q has more than %d decimal places", s, AmountDecimals)
	}
	frac += strings.Repeat("0", AmountDecimals-len(frac))

	n, ok := sdkmath.NewIntFromString(whole + frac)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

// MicroUnits converts a fixed-point amount into micro-units (rounded up),
// clamped to the int64 range.
func MicroUnits(amount sdkmath.Int) int64 {
	ms := sdkmath.NewIntWithDecimal(1, MicroDecimals)
	q := amount.Quo(ms)
	if !amount.Sub(q.Mul(ms)).IsZero() {
		q = q.AddRaw(1)
	}
	if !q.IsInt64() {
		return math.MaxInt64
	}
	return q.Int64()
}

// FormatAmount renders a fixed-point amount as a decimal string of whole
// asset units, trimming trailing zeros.
func FormatAmount(amount sdkmath.Int) string {
	d := sdkmath.LegacyNewDecFromIntWithPrec(amount, AmountDecimals)
	out := d.String()
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	return out
}
