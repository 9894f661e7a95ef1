package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dayFormat = "2006-01-02"

// SafetyConfig holds the envelope parameters resolved from configuration.
type SafetyConfig struct {
	Admins            []string
	Approvers         []string
	MultisigThreshold int
	MaxTxAmount       sdkmath.Int
	MaxDailyVolume    sdkmath.Int
	ProposalTTL       time.Duration
}

// SafetyServiceImpl implements ports.SafetyService: blacklist/whitelist,
// per-transaction and daily caps, the pause state machine and multisig
// proposals.
type SafetyServiceImpl struct {
	cfg     SafetyConfig
	volumes ports.VolumeStore
	audit   ports.AuditService
	log     zerolog.Logger

	mu          sync.Mutex
	admins      map[string]bool
	approvers   map[string]bool
	blacklist   map[string]domain.ListEntry
	whitelist   map[string]domain.ListEntry
	pause       domain.PauseState
	pauseReason string
	proposals   map[uuid.UUID]*domain.Proposal
	executors   map[domain.ProposalAction]func(ctx context.Context, payload string) error
	now         nowFunc
}

// NewSafetyService creates the safety envelope. Admins are implicitly
// qualified proposers and approvers.
func NewSafetyService(cfg SafetyConfig, volumes ports.VolumeStore, audit ports.AuditService, log zerolog.Logger) *SafetyServiceImpl {
	admins := make(map[string]bool, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a] = true
	}
	approvers := make(map[string]bool, len(cfg.Approvers))
	for _, a := range cfg.Approvers {
		approvers[a] = true
	}

	return &SafetyServiceImpl{
		cfg:       cfg,
		volumes:   volumes,
		audit:     audit,
		log:       log,
		admins:    admins,
		approvers: approvers,
		blacklist: make(map[string]domain.ListEntry),
		whitelist: make(map[string]domain.ListEntry),
		pause:     domain.PauseStateActive,
		proposals: make(map[uuid.UUID]*domain.Proposal),
		executors: make(map[domain.ProposalAction]func(ctx context.Context, payload string) error),
		now:       defaultNow,
	}
}

// ValidateTransaction gates one capital-moving operation. It has no side
// effects; callers charge CommitVolume once the movement settles.
func (s *SafetyServiceImpl) ValidateTransaction(ctx context.Context, actor string, amount sdkmath.Int, kind domain.TxKind) error {
	s.mu.Lock()
	if _, black := s.blacklist[actor]; black {
		s.mu.Unlock()
		return apperror.ErrBlacklisted(actor)
	}
	paused := s.pause != domain.PauseStateActive
	maxTx := s.cfg.MaxTxAmount
	maxDaily := s.cfg.MaxDailyVolume
	s.mu.Unlock()

	if paused && kind != domain.TxKindEmergency {
		return apperror.ErrPaused()
	}

	if !maxTx.IsNil() && amount.GT(maxTx) {
		return apperror.ErrLimitsExceeded(fmt.Sprintf(
			"amount %s exceeds the single-transaction cap %s",
			domain.FormatAmount(amount), domain.FormatAmount(maxTx)))
	}

	if s.volumes == nil || maxDaily.IsNil() {
		return nil
	}

	day := s.now().UTC().Format(dayFormat)
	micro := domain.MicroUnits(amount)
	current, err := s.volumes.Get(ctx, actor, day)
	if err != nil {
		// Degraded mode: the per-transaction cap still applies.
		s.log.Warn().Err(err).Str("actor", actor).Msg("volume store unavailable, skipping daily cap")
		return nil
	}
	if current+micro > domain.MicroUnits(maxDaily) {
		return apperror.ErrLimitsExceeded(fmt.Sprintf(
			"daily volume cap %s exceeded for %s",
			domain.FormatAmount(maxDaily), actor))
	}
	return nil
}

// CommitVolume charges a settled transaction against the actor's rolling
// UTC-day counter. It runs after the capital movement succeeds so a failed
// placement does not consume daily headroom.
func (s *SafetyServiceImpl) CommitVolume(ctx context.Context, actor string, amount sdkmath.Int) {
	s.mu.Lock()
	maxDaily := s.cfg.MaxDailyVolume
	s.mu.Unlock()
	if s.volumes == nil || maxDaily.IsNil() {
		return
	}
	day := s.now().UTC().Format(dayFormat)
	if _, err := s.volumes.Add(ctx, actor, day, domain.MicroUnits(amount)); err != nil {
		s.log.Warn().Err(err).Str("actor", actor).Msg("failed to update daily volume counter")
	}
}

// RequireAdmin fails with RoleNotAuthorized unless actor is an admin.
func (s *SafetyServiceImpl) RequireAdmin(actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.admins[actor] {
		return apperror.ErrRoleNotAuthorized(actor)
	}
	return nil
}

// qualified reports whether actor may propose or approve multisig actions.
func (s *SafetyServiceImpl) qualified(actor string) bool {
	return s.admins[actor] || s.approvers[actor]
}

// Blacklist adds addr to the blacklist. The blacklist and whitelist are
// mutually exclusive. Admin-only.
func (s *SafetyServiceImpl) Blacklist(ctx context.Context, actor string, addr string, reason string) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.whitelist[addr]; ok {
		s.mu.Unlock()
		return apperror.Validation("address is whitelisted; remove it from the whitelist first")
	}
	s.blacklist[addr] = domain.ListEntry{Address: addr, Reason: reason, AddedBy: actor, AddedAt: s.now()}
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "Blacklist", domain.AuditCategorySafety, fmt.Sprintf(`{"address":%q,"reason":%q}`, addr, reason), true, "")
	s.log.Info().Str("address", addr).Str("reason", reason).Msg("address blacklisted")
	return nil
}

// Whitelist adds addr to the whitelist. Admin-only.
func (s *SafetyServiceImpl) Whitelist(ctx context.Context, actor string, addr string, reason string) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.blacklist[addr]; ok {
		s.mu.Unlock()
		return apperror.Validation("address is blacklisted; remove it from the blacklist first")
	}
	s.whitelist[addr] = domain.ListEntry{Address: addr, Reason: reason, AddedBy: actor, AddedAt: s.now()}
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "Whitelist", domain.AuditCategorySafety, fmt.Sprintf(`{"address":%q,"reason":%q}`, addr, reason), true, "")
	return nil
}

// SetLimits replaces the per-transaction and daily caps. Nil values keep
// the current cap. Admin-only; quorum proposals reach this through the
// SET_LIMITS executor.
func (s *SafetyServiceImpl) SetLimits(ctx context.Context, actor string, maxTx, maxDaily sdkmath.Int) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	txStr, dailyStr := "unchanged", "unchanged"
	s.mu.Lock()
	if !maxTx.IsNil() {
		s.cfg.MaxTxAmount = maxTx
		txStr = domain.FormatAmount(maxTx)
	}
	if !maxDaily.IsNil() {
		s.cfg.MaxDailyVolume = maxDaily
		dailyStr = domain.FormatAmount(maxDaily)
	}
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "SetLimits", domain.AuditCategorySafety,
		fmt.Sprintf(`{"max_tx":%q,"max_daily":%q}`, txStr, dailyStr), true, "")
	s.log.Info().Str("max_tx", txStr).Str("max_daily", dailyStr).Msg("transaction caps updated")
	return nil
}

// IsBlacklisted reports blacklist membership.
func (s *SafetyServiceImpl) IsBlacklisted(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blacklist[addr]
	return ok
}

// ProposeAction opens a multisig proposal with the proposer's implicit
// approval. A threshold of 1 executes immediately.
func (s *SafetyServiceImpl) ProposeAction(ctx context.Context, proposer string, action domain.ProposalAction, payload string) (uuid.UUID, error) {
	s.mu.Lock()
	if !s.qualified(proposer) {
		s.mu.Unlock()
		return uuid.Nil, apperror.ErrRoleNotAuthorized(proposer)
	}

	now := s.now()
	p := &domain.Proposal{
		ID:        uuid.New(),
		Action:    action,
		Payload:   payload,
		Proposer:  proposer,
		Approvers: map[string]bool{proposer: true},
		Threshold: s.cfg.MultisigThreshold,
		Deadline:  now.Add(s.cfg.ProposalTTL),
		CreatedAt: now,
	}
	s.proposals[p.ID] = p
	s.mu.Unlock()

	s.audit.Record(ctx, proposer, "ProposeAction", domain.AuditCategorySafety, fmt.Sprintf(`{"proposal":%q,"action":%q}`, p.ID, action), true, "")
	s.log.Info().Str("proposal", p.ID.String()).Str("action", string(action)).Msg("multisig proposal opened")

	if err := s.maybeExecute(ctx, p); err != nil {
		return p.ID, err
	}
	return p.ID, nil
}

// Approve adds one approval. Reaching the threshold triggers execution
// within the same call, exactly once.
func (s *SafetyServiceImpl) Approve(ctx context.Context, approver string, proposalID uuid.UUID) (*domain.Proposal, error) {
	s.mu.Lock()
	if !s.qualified(approver) {
		s.mu.Unlock()
		return nil, apperror.ErrRoleNotAuthorized(approver)
	}
	p, ok := s.proposals[proposalID]
	if !ok {
		s.mu.Unlock()
		return nil, apperror.ErrProposalNotFound(proposalID.String())
	}
	if p.Executed {
		s.mu.Unlock()
		return nil, apperror.ErrAlreadyExecuted()
	}
	if p.Expired(s.now()) {
		s.mu.Unlock()
		return nil, apperror.ErrProposalExpired()
	}
	if p.Approvers[approver] {
		s.mu.Unlock()
		return nil, apperror.Validation("approver has already signed off")
	}
	p.Approvers[approver] = true
	approvals := p.ApprovalCount()
	s.mu.Unlock()

	s.audit.Record(ctx, approver, "ApproveAction", domain.AuditCategorySafety, fmt.Sprintf(`{"proposal":%q,"approvals":%d}`, p.ID, approvals), true, "")

	if err := s.maybeExecute(ctx, p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot := p.Clone()
	s.mu.Unlock()
	return snapshot, nil
}

// maybeExecute runs the registered executor once approvals reach the
// threshold. On executor failure the proposal stays unexecuted so a
// subsequent approval can retry.
func (s *SafetyServiceImpl) maybeExecute(ctx context.Context, p *domain.Proposal) error {
	s.mu.Lock()
	if p.Executed || p.ApprovalCount() < p.Threshold {
		s.mu.Unlock()
		return nil
	}
	fn, ok := s.executors[p.Action]
	if !ok {
		s.mu.Unlock()
		return apperror.InternalError(fmt.Errorf("no executor registered for action %s", p.Action))
	}
	// Claim execution before releasing the lock so a racing approval
	// cannot run the executor a second time.
	p.Executed = true
	payload := p.Payload
	s.mu.Unlock()

	if err := fn(ctx, payload); err != nil {
		s.mu.Lock()
		p.Executed = false
		s.mu.Unlock()
		s.audit.Record(ctx, p.Proposer, "ExecuteProposal", domain.AuditCategorySafety, fmt.Sprintf(`{"proposal":%q}`, p.ID), false, err.Error())
		s.log.Error().Err(err).Str("proposal", p.ID.String()).Msg("proposal execution failed")
		return err
	}

	s.audit.Record(ctx, p.Proposer, "ExecuteProposal", domain.AuditCategorySafety, fmt.Sprintf(`{"proposal":%q,"action":%q}`, p.ID, p.Action), true, "")
	s.log.Info().Str("proposal", p.ID.String()).Str("action", string(p.Action)).Msg("proposal executed")
	return nil
}

// RegisterExecutor binds the callback run when a proposal for action
// reaches quorum.
func (s *SafetyServiceImpl) RegisterExecutor(action domain.ProposalAction, fn func(ctx context.Context, payload string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[action] = fn
}

// GetProposal returns a copy of the proposal.
func (s *SafetyServiceImpl) GetProposal(proposalID uuid.UUID) (*domain.Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// ActivateEmergencyPause blocks capital-moving operations. Reversible.
func (s *SafetyServiceImpl) ActivateEmergencyPause(ctx context.Context, actor string, reason string) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	s.mu.Lock()
	if s.pause == domain.PauseStatePermanentlyPaused {
		s.mu.Unlock()
		return apperror.Validation("vault is permanently paused")
	}
	s.pause = domain.PauseStatePaused
	s.pauseReason = reason
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "EmergencyPause", domain.AuditCategorySafety, fmt.Sprintf(`{"reason":%q}`, reason), true, "")
	s.log.Warn().Str("reason", reason).Msg("emergency pause activated")
	return nil
}

// DeactivatePause resumes operations from an emergency pause. The
// permanent pause has no reverse edge.
func (s *SafetyServiceImpl) DeactivatePause(ctx context.Context, actor string) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	s.mu.Lock()
	if s.pause == domain.PauseStatePermanentlyPaused {
		s.mu.Unlock()
		return apperror.Validation("permanent pause cannot be lifted")
	}
	s.pause = domain.PauseStateActive
	s.pauseReason = ""
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "Unpause", domain.AuditCategorySafety, "", true, "")
	return nil
}

// ActivatePermanentPause is the one-way kill switch.
func (s *SafetyServiceImpl) ActivatePermanentPause(ctx context.Context, actor string, reason string) error {
	if err := s.RequireAdmin(actor); err != nil {
		return err
	}

	s.mu.Lock()
	s.pause = domain.PauseStatePermanentlyPaused
	s.pauseReason = reason
	s.mu.Unlock()

	s.audit.Record(ctx, actor, "PermanentPause", domain.AuditCategorySafety, fmt.Sprintf(`{"reason":%q}`, reason), true, "")
	s.log.Error().Str("reason", reason).Msg("permanent pause activated")
	return nil
}

// PauseState returns the current pause state.
func (s *SafetyServiceImpl) PauseState() domain.PauseState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pause
}
