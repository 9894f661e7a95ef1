package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"yield-vault-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuditRepo implements ports.AuditRepository. The audit_entries table is
// append-only; ids come from the service, not a sequence, so the trail
// survives restarts with its numbering intact.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const insertEntrySQL = `INSERT INTO audit_entries (id, actor, action, category, payload, success, reason, created_at, verified, anchor_ref)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Insert appends one entry.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	_, err := r.pool.Exec(ctx, insertEntrySQL,
		e.ID, e.Actor, e.Action, string(e.Category), e.Payload,
		e.Success, e.Reason, e.Timestamp, e.Verified, e.AnchorRef,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// InsertBatch appends a contiguous run of entries in one transaction so a
// partial batch never reaches the table.
func (r *AuditRepo) InsertBatch(ctx context.Context, entries []domain.AuditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin audit batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range entries {
		e := &entries[i]
		if _, err := tx.Exec(ctx, insertEntrySQL,
			e.ID, e.Actor, e.Action, string(e.Category), e.Payload,
			e.Success, e.Reason, e.Timestamp, e.Verified, e.AnchorRef,
		); err != nil {
			return fmt.Errorf("insert audit entry %d: %w", e.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// Query fetches entries matching q in id order.
func (r *AuditRepo) Query(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if q.Actor != "" {
		conditions = append(conditions, fmt.Sprintf("actor = $%d", argIdx))
		args = append(args, q.Actor)
		argIdx++
	}
	if q.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, q.Action)
		argIdx++
	}
	if q.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, string(q.Category))
		argIdx++
	}
	if !q.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, q.From)
		argIdx++
	}
	if !q.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, q.To)
		argIdx++
	}

	query := `SELECT id, actor, action, category, payload, success, reason, created_at, verified, anchor_ref FROM audit_entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var category string
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &category, &e.Payload,
			&e.Success, &e.Reason, &e.Timestamp, &e.Verified, &e.AnchorRef); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Category = domain.AuditCategory(category)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MaxID returns the highest persisted entry id, zero for an empty trail.
func (r *AuditRepo) MaxID(ctx context.Context) (uint64, error) {
	var id uint64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM audit_entries`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("max audit id: %w", err)
	}
	return id, nil
}

// SaveReport persists a finalized compliance report.
func (r *AuditRepo) SaveReport(ctx context.Context, report *domain.ComplianceReport) error {
	byCategory, err := json.Marshal(report.ByCategory)
	if err != nil {
		return fmt.Errorf("marshal report categories: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO compliance_reports (id, window_start, window_end, total_entries, succeeded, failed, by_category, finalized, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.ID, report.From, report.To, report.TotalEntries,
		report.Succeeded, report.Failed, byCategory, report.Finalized, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert compliance report: %w", err)
	}
	return nil
}

// GetReport fetches a report by id. A missing report returns (nil, nil).
func (r *AuditRepo) GetReport(ctx context.Context, id uuid.UUID) (*domain.ComplianceReport, error) {
	var report domain.ComplianceReport
	var byCategory []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, window_start, window_end, total_entries, succeeded, failed, by_category, finalized, generated_at
		 FROM compliance_reports WHERE id = $1`, id,
	).Scan(&report.ID, &report.From, &report.To, &report.TotalEntries,
		&report.Succeeded, &report.Failed, &byCategory, &report.Finalized, &report.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get compliance report: %w", err)
	}
	if err := json.Unmarshal(byCategory, &report.ByCategory); err != nil {
		return nil, fmt.Errorf("unmarshal report categories: %w", err)
	}
	return &report, nil
}
