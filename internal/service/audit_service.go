package service

import (
	"context"
	"sync"
	"time"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditServiceImpl keeps the canonical append-only trail in memory and
// mirrors it to the repository and anchor sink best-effort. A failing
// mirror never blocks the operation being recorded.
type AuditServiceImpl struct {
	repo   ports.AuditRepository
	anchor ports.AnchorSink
	log    zerolog.Logger

	mu      sync.RWMutex
	entries []domain.AuditEntry
	nextID  uint64
	reports map[uuid.UUID]*domain.ComplianceReport
	now     nowFunc
}

// NewAuditService creates the trail. When a repository is configured the
// id sequence resumes after the highest persisted id.
func NewAuditService(ctx context.Context, repo ports.AuditRepository, anchor ports.AnchorSink, log zerolog.Logger) *AuditServiceImpl {
	next := uint64(1)
	if repo != nil {
		if max, err := repo.MaxID(ctx); err != nil {
			log.Warn().Err(err).Msg("could not read persisted audit high-water mark, starting from 1")
		} else {
			next = max + 1
		}
	}
	return &AuditServiceImpl{
		repo:    repo,
		anchor:  anchor,
		log:     log,
		nextID:  next,
		reports: make(map[uuid.UUID]*domain.ComplianceReport),
		now:     defaultNow,
	}
}

// Record appends one entry and returns its id. Ids are strictly monotonic
// and never reused, including for failed operations.
func (a *AuditServiceImpl) Record(ctx context.Context, actor, action string, category domain.AuditCategory, payload string, success bool, reason string) uint64 {
	a.mu.Lock()
	entry := domain.AuditEntry{
		ID:        a.nextID,
		Actor:     actor,
		Action:    action,
		Category:  category,
		Payload:   payload,
		Success:   success,
		Reason:    reason,
		Timestamp: a.now(),
	}
	a.nextID++
	a.entries = append(a.entries, entry)
	a.mu.Unlock()

	a.mirror(ctx, &entry)
	return entry.ID
}

// RecordBatch appends entries from parallel slices and returns the first
// id of the contiguous range assigned to them.
func (a *AuditServiceImpl) RecordBatch(ctx context.Context, actors, actions []string, category domain.AuditCategory, payloads []string, successes []bool) (uint64, error) {
	n := len(actors)
	if n == 0 || len(actions) != n || len(payloads) != n || len(successes) != n {
		return 0, apperror.Validation("batch slices must be non-empty and the same length")
	}

	a.mu.Lock()
	first := a.nextID
	batch := make([]domain.AuditEntry, n)
	ts := a.now()
	for i := 0; i < n; i++ {
		batch[i] = domain.AuditEntry{
			ID:        a.nextID,
			Actor:     actors[i],
			Action:    actions[i],
			Category:  category,
			Payload:   payloads[i],
			Success:   successes[i],
			Timestamp: ts,
		}
		a.nextID++
	}
	a.entries = append(a.entries, batch...)
	a.mu.Unlock()

	if a.repo != nil {
		if err := a.repo.InsertBatch(ctx, batch); err != nil {
			a.log.Warn().Err(err).Int("count", n).Msg("failed to persist audit batch")
		}
	}
	for i := range batch {
		a.anchorEntry(ctx, &batch[i])
	}
	return first, nil
}

// mirror persists and anchors one entry, logging failures and moving on.
func (a *AuditServiceImpl) mirror(ctx context.Context, entry *domain.AuditEntry) {
	if a.repo != nil {
		if err := a.repo.Insert(ctx, entry); err != nil {
			a.log.Warn().Err(err).Uint64("id", entry.ID).Msg("failed to persist audit entry")
		}
	}
	a.anchorEntry(ctx, entry)
}

func (a *AuditServiceImpl) anchorEntry(ctx context.Context, entry *domain.AuditEntry) {
	if a.anchor == nil {
		return
	}
	ref, err := a.anchor.Anchor(ctx, entry)
	if err != nil {
		a.log.Warn().Err(err).Uint64("id", entry.ID).Msg("external anchoring failed")
		return
	}
	a.mu.Lock()
	for i := range a.entries {
		if a.entries[i].ID == entry.ID {
			a.entries[i].Verified = true
			a.entries[i].AnchorRef = ref
			break
		}
	}
	a.mu.Unlock()
}

// Query filters the trail. Zero-valued criteria match everything; results
// come back in id order, capped at q.Limit when set.
func (a *AuditServiceImpl) Query(ctx context.Context, q domain.AuditQuery) []domain.AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []domain.AuditEntry
	for _, e := range a.entries {
		if q.Actor != "" && e.Actor != q.Actor {
			continue
		}
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if !q.From.IsZero() && e.Timestamp.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.Timestamp.Before(q.To) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

// GenerateReport aggregates entries over [from, to) into a finalized
// compliance report. Finalized reports are immutable.
func (a *AuditServiceImpl) GenerateReport(ctx context.Context, from, to time.Time) (*domain.ComplianceReport, error) {
	if !to.After(from) {
		return nil, apperror.Validation("report window end must be after its start")
	}

	a.mu.RLock()
	report := &domain.ComplianceReport{
		ID:          uuid.New(),
		From:        from,
		To:          to,
		ByCategory:  make(map[domain.AuditCategory]int64),
		Finalized:   true,
		GeneratedAt: a.now(),
	}
	for _, e := range a.entries {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		report.TotalEntries++
		if e.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.ByCategory[e.Category]++
	}
	a.mu.RUnlock()

	a.mu.Lock()
	a.reports[report.ID] = report
	a.mu.Unlock()

	if a.repo != nil {
		if err := a.repo.SaveReport(ctx, report); err != nil {
			a.log.Warn().Err(err).Str("report", report.ID.String()).Msg("failed to persist compliance report")
		}
	}
	a.log.Info().
		Str("report", report.ID.String()).
		Int64("entries", report.TotalEntries).
		Msg("compliance report generated")
	return report, nil
}

// GetReport returns a previously generated report.
func (a *AuditServiceImpl) GetReport(ctx context.Context, id uuid.UUID) (*domain.ComplianceReport, bool) {
	a.mu.RLock()
	r, ok := a.reports[id]
	a.mu.RUnlock()
	if ok {
		return r, true
	}
	if a.repo != nil {
		if persisted, err := a.repo.GetReport(ctx, id); err == nil && persisted != nil {
			return persisted, true
		}
	}
	return nil, false
}
