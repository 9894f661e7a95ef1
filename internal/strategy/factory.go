package strategy

import (
	"fmt"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"

	"github.com/rs/zerolog"
)

// New constructs an adapter of the given kind over client.
func New(kind domain.StrategyKind, id string, client ProtocolClient, staticAPYBps int64, log zerolog.Logger) (ports.StrategyAdapter, error) {
	switch kind {
	case domain.StrategyKindMoneyMarket:
		return NewMoneyMarketAdapter(id, client, staticAPYBps, log), nil
	case domain.StrategyKindAMMLiquidity:
		return NewAMMLiquidityAdapter(id, client, staticAPYBps, log), nil
	case domain.StrategyKindLendingPool:
		return NewLendingPoolAdapter(id, client, staticAPYBps, log), nil
	case domain.StrategyKindAutoCompound:
		return NewAutoCompoundAdapter(id, client, staticAPYBps, log), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", kind)
	}
}
