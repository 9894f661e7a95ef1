// Package monitor periodically probes every registered strategy and
// refreshes the registry's cached health, APY and asset figures.
package monitor

import (
	"context"
	"fmt"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Monitor schedules strategy refresh sweeps with cron.
type Monitor struct {
	cron     *cron.Cron
	registry ports.StrategyRegistry
	audit    ports.AuditService
	log      zerolog.Logger
}

// New creates a Monitor. The sweep runs on the given cron schedule
// (standard five-field or @every syntax).
func New(registry ports.StrategyRegistry, audit ports.AuditService, log zerolog.Logger) *Monitor {
	return &Monitor{
		cron:     cron.New(),
		registry: registry,
		audit:    audit,
		log:      log,
	}
}

// Register binds the refresh sweep to the schedule.
func (m *Monitor) Register(schedule string) error {
	if _, err := m.cron.AddFunc(schedule, m.Sweep); err != nil {
		return fmt.Errorf("register strategy sweep: %w", err)
	}
	return nil
}

// Start starts the scheduler.
func (m *Monitor) Start() {
	m.cron.Start()
	m.log.Info().Msg("strategy monitor started")
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info().Msg("strategy monitor stopped")
}

// Sweep probes every registered strategy once. Health transitions are
// recorded in the audit trail.
func (m *Monitor) Sweep() {
	ctx := context.Background()

	for _, rec := range m.registry.List() {
		adapter, prev, ok := m.registry.Get(rec.ID)
		if !ok {
			continue
		}

		healthy := adapter.IsHealthy(ctx)
		m.registry.SetHealth(rec.ID, healthy)
		m.registry.SetCachedAPY(rec.ID, adapter.EstimatedAPY(ctx))
		m.registry.SetCachedAssets(rec.ID, adapter.TotalAssets(ctx))

		if prev.Healthy != healthy {
			status := "recovered"
			if !healthy {
				status = "degraded"
			}
			m.audit.Record(ctx, "monitor", "HealthTransition", domain.AuditCategoryStrategy,
				fmt.Sprintf(`{"strategy":%q,"status":%q}`, rec.ID, status), true, "")
			m.log.Warn().Str("strategy", rec.ID).Bool("healthy", healthy).Msg("strategy health changed")
		}
	}
}
