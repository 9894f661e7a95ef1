package ports

import (
	"context"

	"yield-vault-engine/internal/core/domain"

	"github.com/google/uuid"
)

// AuditRepository persists the append-only audit trail. Entries are only
// ever inserted, never updated or deleted; reports gain a finalized flag
// exactly once.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	InsertBatch(ctx context.Context, entries []domain.AuditEntry) error
	Query(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error)
	MaxID(ctx context.Context) (uint64, error)
	SaveReport(ctx context.Context, report *domain.ComplianceReport) error
	GetReport(ctx context.Context, id uuid.UUID) (*domain.ComplianceReport, error)
}

// VolumeStore tracks per-address daily transaction volume in micro-units
// (10^-6 asset). Counters are scoped to a UTC day and reset implicitly on
// day rollover via key expiry.
type VolumeStore interface {
	// Add atomically adds micro to the actor's counter for the given UTC
	// day and returns the new total.
	Add(ctx context.Context, actor string, day string, micro int64) (int64, error)
	// Get returns the actor's counter for the given UTC day.
	Get(ctx context.Context, actor string, day string) (int64, error)
}

// AnchorSink mirrors audit entries to an external immutable-log service.
// Failures must not roll back the core operation that produced the entry.
type AnchorSink interface {
	// Anchor submits one entry and returns an external reference id.
	Anchor(ctx context.Context, entry *domain.AuditEntry) (string, error)
}
