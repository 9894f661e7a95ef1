package postgres

import (
	"context"
	"testing"
	"time"

	"yield-vault-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(id uint64) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        id,
		Actor:     "alice",
		Action:    "Deposit",
		Category:  domain.AuditCategoryLedger,
		Payload:   `{"amount":"100"}`,
		Success:   true,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func entryColumns() []string {
	return []string{"id", "actor", "action", "category", "payload", "success", "reason", "created_at", "verified", "anchor_ref"}
}

func entryRow(e *domain.AuditEntry) *pgxmock.Rows {
	return pgxmock.NewRows(entryColumns()).AddRow(
		e.ID, e.Actor, e.Action, string(e.Category), e.Payload,
		e.Success, e.Reason, e.Timestamp, e.Verified, e.AnchorRef,
	)
}

func TestAuditRepo_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	e := newTestEntry(1)

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(e.ID, e.Actor, e.Action, string(e.Category), e.Payload,
			e.Success, e.Reason, e.Timestamp, e.Verified, e.AnchorRef).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Insert(context.Background(), e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_InsertBatchIsTransactional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	entries := []domain.AuditEntry{*newTestEntry(1), *newTestEntry(2)}

	mock.ExpectBegin()
	for i := range entries {
		e := &entries[i]
		mock.ExpectExec("INSERT INTO audit_entries").
			WithArgs(e.ID, e.Actor, e.Action, string(e.Category), e.Payload,
				e.Success, e.Reason, e.Timestamp, e.Verified, e.AnchorRef).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err = repo.InsertBatch(context.Background(), entries)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_InsertBatchRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	entries := []domain.AuditEntry{*newTestEntry(1)}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(entries[0].ID, entries[0].Actor, entries[0].Action, string(entries[0].Category), entries[0].Payload,
			entries[0].Success, entries[0].Reason, entries[0].Timestamp, entries[0].Verified, entries[0].AnchorRef).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = repo.InsertBatch(context.Background(), entries)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_QueryWithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	e := newTestEntry(7)

	mock.ExpectQuery("SELECT id, actor, action, category").
		WithArgs("alice", string(domain.AuditCategoryLedger), 10).
		WillReturnRows(entryRow(e))

	got, err := repo.Query(context.Background(), domain.AuditQuery{
		Actor:    "alice",
		Category: domain.AuditCategoryLedger,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(7), got[0].ID)
	assert.Equal(t, domain.AuditCategoryLedger, got[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_MaxID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(uint64(42)))

	id, err := repo.MaxID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_SaveAndGetReport(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	report := &domain.ComplianceReport{
		ID:           uuid.New(),
		From:         time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Microsecond),
		To:           time.Now().UTC().Truncate(time.Microsecond),
		TotalEntries: 3,
		Succeeded:    2,
		Failed:       1,
		ByCategory:   map[domain.AuditCategory]int64{domain.AuditCategoryLedger: 3},
		Finalized:    true,
		GeneratedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO compliance_reports").
		WithArgs(report.ID, report.From, report.To, report.TotalEntries,
			report.Succeeded, report.Failed, pgxmock.AnyArg(), report.Finalized, report.GeneratedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.SaveReport(context.Background(), report))

	mock.ExpectQuery("SELECT id, window_start, window_end").
		WithArgs(report.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "window_start", "window_end", "total_entries", "succeeded", "failed", "by_category", "finalized", "generated_at"}).
			AddRow(report.ID, report.From, report.To, report.TotalEntries,
				report.Succeeded, report.Failed, []byte(`{"LEDGER":3}`), report.Finalized, report.GeneratedAt))

	got, err := repo.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, report.ID, got.ID)
	assert.EqualValues(t, 3, got.ByCategory[domain.AuditCategoryLedger])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_GetReportNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, window_start, window_end").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	got, err := repo.GetReport(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
