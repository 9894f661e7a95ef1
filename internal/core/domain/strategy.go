package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StrategyKind identifies how an adapter variant accounts for its position
// in the wrapped protocol.
type StrategyKind string

const (
	StrategyKindMoneyMarket  StrategyKind = "MONEY_MARKET"
	StrategyKindAMMLiquidity StrategyKind = "AMM_LIQUIDITY"
	StrategyKindLendingPool  StrategyKind = "LENDING_POOL"
	StrategyKindAutoCompound StrategyKind = "AUTO_COMPOUND"
)

// StrategyRecord is the registry entry for one strategy adapter.
// An adapter holding nonzero assets cannot be deregistered.
type StrategyRecord struct {
	ID           string       `json:"id"`
	Protocol     string       `json:"protocol"`
	Kind         StrategyKind `json:"kind"`
	Asset        string       `json:"asset"`
	RiskTier     int          `json:"risk_tier"` // 1 (safest) .. 10
	Healthy      bool         `json:"healthy"`
	Active       bool         `json:"active"`
	CachedAssets sdkmath.Int  `json:"cached_assets"`
	CachedAPYBps int64        `json:"cached_apy_bps"`
	RegisteredAt time.Time    `json:"registered_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ValidRiskTier reports whether tier is within the 1-10 scale.
func ValidRiskTier(tier int) bool {
	return tier >= 1 && tier <= 10
}
