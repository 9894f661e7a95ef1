package service

import (
	"context"
	"sync"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.StrategyRegistry.
type RegistryServiceImpl struct {
	safety ports.SafetyService
	audit  ports.AuditService
	log    zerolog.Logger

	mu       sync.RWMutex
	adapters map[string]ports.StrategyAdapter
	records  map[string]*domain.StrategyRecord
	now      nowFunc
}

// NewRegistryService creates an empty strategy registry.
func NewRegistryService(safety ports.SafetyService, audit ports.AuditService, log zerolog.Logger) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		safety:   safety,
		audit:    audit,
		log:      log,
		adapters: make(map[string]ports.StrategyAdapter),
		records:  make(map[string]*domain.StrategyRecord),
		now:      defaultNow,
	}
}

// Register adds a strategy adapter to the registry. Admin-only.
func (r *RegistryServiceImpl) Register(ctx context.Context, actor string, adapter ports.StrategyAdapter, record domain.StrategyRecord) error {
	if err := r.safety.RequireAdmin(actor); err != nil {
		return err
	}
	if record.ID == "" || record.ID != adapter.ID() {
		return apperror.Validation("record id must match adapter id")
	}
	if !domain.ValidRiskTier(record.RiskTier) {
		return apperror.Validation("risk tier must be between 1 and 10")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return apperror.Validation("strategy id already registered")
	}

	now := r.now()
	record.Healthy = adapter.IsHealthy(ctx)
	record.Active = false
	record.CachedAssets = adapter.TotalAssets(ctx)
	record.CachedAPYBps = adapter.EstimatedAPY(ctx)
	record.RegisteredAt = now
	record.UpdatedAt = now

	r.adapters[record.ID] = adapter
	r.records[record.ID] = &record

	r.audit.Record(ctx, actor, "RegisterStrategy", domain.AuditCategoryStrategy, `{"id":"`+record.ID+`"}`, true, "")
	r.log.Info().Str("strategy", record.ID).Str("protocol", record.Protocol).Int("risk_tier", record.RiskTier).Msg("strategy registered")
	return nil
}

// Deregister removes a strategy adapter. An adapter holding nonzero assets
// cannot be deregistered. Admin-only.
func (r *RegistryServiceImpl) Deregister(ctx context.Context, actor string, strategyID string) error {
	if err := r.safety.RequireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	adapter, ok := r.adapters[strategyID]
	if !ok {
		return apperror.ErrInvalidStrategy(strategyID)
	}
	if adapter.TotalAssets(ctx).IsPositive() {
		r.audit.Record(ctx, actor, "DeregisterStrategy", domain.AuditCategoryStrategy, `{"id":"`+strategyID+`"}`, false, "strategy holds assets")
		return apperror.ErrStrategyHoldsFunds(strategyID)
	}
	if r.records[strategyID].Active {
		return apperror.Validation("cannot deregister the active strategy")
	}

	delete(r.adapters, strategyID)
	delete(r.records, strategyID)

	r.audit.Record(ctx, actor, "DeregisterStrategy", domain.AuditCategoryStrategy, `{"id":"`+strategyID+`"}`, true, "")
	r.log.Info().Str("strategy", strategyID).Msg("strategy deregistered")
	return nil
}

// Get returns the adapter and a copy of its registry record.
func (r *RegistryServiceImpl) Get(strategyID string) (ports.StrategyAdapter, *domain.StrategyRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[strategyID]
	if !ok {
		return nil, nil, false
	}
	rec := *r.records[strategyID]
	return adapter, &rec, true
}

// List returns copies of all registry records.
func (r *RegistryServiceImpl) List() []domain.StrategyRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StrategyRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}

// SetActive flips the active flag on a record. Called by the vault ledger
// when the active strategy switches.
func (r *RegistryServiceImpl) SetActive(strategyID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[strategyID]; ok {
		rec.Active = active
		rec.UpdatedAt = r.now()
	}
}

// SetHealth updates the cached health flag, fed by the monitor.
func (r *RegistryServiceImpl) SetHealth(strategyID string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[strategyID]; ok {
		rec.Healthy = healthy
		rec.UpdatedAt = r.now()
	}
}

// SetCachedAPY updates the cached APY, fed by the monitor.
func (r *RegistryServiceImpl) SetCachedAPY(strategyID string, bps int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[strategyID]; ok {
		rec.CachedAPYBps = bps
		rec.UpdatedAt = r.now()
	}
}

// SetCachedAssets updates the cached valuation, fed by the monitor.
func (r *RegistryServiceImpl) SetCachedAssets(strategyID string, assets sdkmath.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[strategyID]; ok {
		rec.CachedAssets = assets
		rec.UpdatedAt = r.now()
	}
}
