package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditCategory groups audit entries for querying and compliance reports.
type AuditCategory string

const (
	AuditCategoryLedger    AuditCategory = "LEDGER"
	AuditCategoryRebalance AuditCategory = "REBALANCE"
	AuditCategorySafety    AuditCategory = "SAFETY"
	AuditCategoryStrategy  AuditCategory = "STRATEGY"
	AuditCategoryAdmin     AuditCategory = "ADMIN"
)

// AuditEntry is one append-only record of a state-changing operation.
// Entries are never mutated or deleted once created.
type AuditEntry struct {
	ID        uint64        `json:"id"` // monotonically increasing
	Actor     string        `json:"actor"`
	Action    string        `json:"action"`
	Category  AuditCategory `json:"category"`
	Payload   string        `json:"payload,omitempty"` // JSON string
	Success   bool          `json:"success"`
	Reason    string        `json:"reason,omitempty"` // failure reason, empty on success
	Timestamp time.Time     `json:"timestamp"`
	Verified  bool          `json:"verified"`             // set once anchored externally
	AnchorRef string        `json:"anchor_ref,omitempty"` // external reference id
}

// AuditQuery filters the audit trail. Zero-valued fields match everything.
type AuditQuery struct {
	Actor    string
	Action   string
	Category AuditCategory
	From     time.Time
	To       time.Time
	Limit    int
}

// ComplianceReport aggregates audit entries over a time window. Reports are
// immutable once finalized.
type ComplianceReport struct {
	ID           uuid.UUID               `json:"id"`
	From         time.Time               `json:"from"`
	To           time.Time               `json:"to"`
	TotalEntries int64                   `json:"total_entries"`
	Succeeded    int64                   `json:"succeeded"`
	Failed       int64                   `json:"failed"`
	ByCategory   map[AuditCategory]int64 `json:"by_category"`
	Finalized    bool                    `json:"finalized"`
	GeneratedAt  time.Time               `json:"generated_at"`
}
