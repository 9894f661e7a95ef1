package ports

import (
	"context"
	"time"

	"yield-vault-engine/internal/core/domain"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// VaultService is the shares-based accounting ledger.
type VaultService interface {
	// Deposit places amount with the active strategy adapter and mints
	// shares proportional to the caller's contribution. Shares are minted
	// only after the underlying capital is confirmed placed.
	Deposit(ctx context.Context, actor string, amount sdkmath.Int) (sdkmath.Int, error)

	// Withdraw burns shares and redeems the proportional amount from the
	// active adapter. On a short redemption the burned shares are restored
	// and the call fails (no partial debit).
	Withdraw(ctx context.Context, actor string, shares sdkmath.Int) (sdkmath.Int, error)

	// BalanceOf returns the underlying-asset value of actor's shares.
	BalanceOf(ctx context.Context, actor string) sdkmath.Int

	// SharesOf returns actor's raw share balance.
	SharesOf(ctx context.Context, actor string) sdkmath.Int

	// PricePerShare returns totalAssets * SCALE / totalShares, computed
	// fresh from live adapter state. An empty vault prices at SCALE (1.0).
	PricePerShare(ctx context.Context) sdkmath.Int

	// TotalShares returns the outstanding share supply.
	TotalShares(ctx context.Context) sdkmath.Int

	// SetStrategy switches the active adapter. It moves no funds: only
	// future deposits are redirected. Admin-only.
	SetStrategy(ctx context.Context, actor string, strategyID string) error

	// EmergencyWithdraw unwinds the given adapter's entire position into
	// the vault's liquid buffer. Admin-only; allowed while paused.
	EmergencyWithdraw(ctx context.Context, actor string, strategyID string) (sdkmath.Int, error)

	// LiquidBuffer returns crisis funds held outside any adapter.
	LiquidBuffer(ctx context.Context) sdkmath.Int
}

// RebalanceService atomically moves capital between two adapters.
type RebalanceService interface {
	// Rebalance withdraws req.Amount from the source adapter and deposits
	// the actually-received amount into the destination. If either step
	// fails the whole operation is rolled back; capital is never left
	// stranded outside both adapters. Admin-only.
	Rebalance(ctx context.Context, actor string, req domain.RebalanceRequest) (*domain.RebalanceReceipt, error)
}

// StrategyRegistry manages the set of known strategy adapters.
type StrategyRegistry interface {
	Register(ctx context.Context, actor string, adapter StrategyAdapter, record domain.StrategyRecord) error
	Deregister(ctx context.Context, actor string, strategyID string) error
	Get(strategyID string) (StrategyAdapter, *domain.StrategyRecord, bool)
	List() []domain.StrategyRecord
	SetActive(strategyID string, active bool)
	SetHealth(strategyID string, healthy bool)
	SetCachedAPY(strategyID string, bps int64)
	SetCachedAssets(strategyID string, assets sdkmath.Int)
}

// SafetyService is the safety envelope: access control, pausing, limits and
// multi-party approvals.
type SafetyService interface {
	// ValidateTransaction checks blacklist membership, pause state, the
	// single-transaction cap and the actor's rolling UTC-day volume. It
	// has no side effects.
	ValidateTransaction(ctx context.Context, actor string, amount sdkmath.Int, kind domain.TxKind) error

	// CommitVolume charges a settled transaction against the actor's
	// rolling UTC-day counter. Callers invoke it only after the capital
	// movement succeeds.
	CommitVolume(ctx context.Context, actor string, amount sdkmath.Int)

	// RequireAdmin fails with RoleNotAuthorized unless actor is an admin.
	RequireAdmin(actor string) error

	// SetLimits replaces the per-transaction and daily caps. Nil values
	// keep the current cap.
	SetLimits(ctx context.Context, actor string, maxTx, maxDaily sdkmath.Int) error

	Blacklist(ctx context.Context, actor string, addr string, reason string) error
	Whitelist(ctx context.Context, actor string, addr string, reason string) error
	IsBlacklisted(addr string) bool

	// ProposeAction opens a multisig proposal with one implicit approval.
	ProposeAction(ctx context.Context, proposer string, action domain.ProposalAction, payload string) (uuid.UUID, error)

	// Approve adds one approval; reaching the threshold triggers execution
	// within the same call. Approving an executed proposal fails with
	// AlreadyExecuted.
	Approve(ctx context.Context, approver string, proposalID uuid.UUID) (*domain.Proposal, error)

	// RegisterExecutor binds the callback run when a proposal for action
	// reaches quorum.
	RegisterExecutor(action domain.ProposalAction, fn func(ctx context.Context, payload string) error)

	GetProposal(proposalID uuid.UUID) (*domain.Proposal, bool)

	ActivateEmergencyPause(ctx context.Context, actor string, reason string) error
	DeactivatePause(ctx context.Context, actor string) error
	ActivatePermanentPause(ctx context.Context, actor string, reason string) error
	PauseState() domain.PauseState
}

// AuditService is the append-only, queryable trail of every state-changing
// operation.
type AuditService interface {
	// Record appends one entry, assigning the next monotonic id.
	Record(ctx context.Context, actor, action string, category domain.AuditCategory, payload string, success bool, reason string) uint64

	// RecordBatch appends entries from parallel slices and returns the
	// first id of the contiguous assigned range.
	RecordBatch(ctx context.Context, actors, actions []string, category domain.AuditCategory, payloads []string, successes []bool) (uint64, error)

	Query(ctx context.Context, q domain.AuditQuery) []domain.AuditEntry

	// GenerateReport aggregates entries over [from, to) and finalizes the
	// resulting report.
	GenerateReport(ctx context.Context, from, to time.Time) (*domain.ComplianceReport, error)

	GetReport(ctx context.Context, id uuid.UUID) (*domain.ComplianceReport, bool)
}

// TokenService handles JWT token operations for the admin surface.
type TokenService interface {
	Generate(keyID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	KeyID string
}

// HashService handles operator API key hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// AuthService authenticates operators against configured key hashes.
type AuthService interface {
	Login(ctx context.Context, keyID, apiKey string) (string, time.Time, error) // token, expiry, error
}
