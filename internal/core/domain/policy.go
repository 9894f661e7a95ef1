package domain

import (
	"time"

	"github.com/google/uuid"
)

// PauseState is the capital-movement gate.
// Active <-> Paused, with a one-way Active -> PermanentlyPaused edge.
type PauseState string

const (
	PauseStateActive            PauseState = "ACTIVE"
	PauseStatePaused            PauseState = "PAUSED"
	PauseStatePermanentlyPaused PauseState = "PERMANENTLY_PAUSED"
)

// TxKind classifies a capital-moving operation for limit checks.
type TxKind string

const (
	TxKindDeposit   TxKind = "DEPOSIT"
	TxKindWithdraw  TxKind = "WITHDRAW"
	TxKindRebalance TxKind = "REBALANCE"
	TxKindEmergency TxKind = "EMERGENCY"
)

// ListEntry records why an address was blacklisted or whitelisted.
type ListEntry struct {
	Address string    `json:"address"`
	Reason  string    `json:"reason"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// ProposalAction identifies the privileged operation a multisig proposal
// will execute once it reaches quorum.
type ProposalAction string

const (
	ProposalActionSetStrategy    ProposalAction = "SET_STRATEGY"
	ProposalActionPause          ProposalAction = "PAUSE"
	ProposalActionUnpause        ProposalAction = "UNPAUSE"
	ProposalActionPermanentPause ProposalAction = "PERMANENT_PAUSE"
	ProposalActionBlacklist      ProposalAction = "BLACKLIST"
	ProposalActionSetLimits      ProposalAction = "SET_LIMITS"
)

// Proposal is one multi-party approval in flight. The proposer's approval
// is implicit; execution triggers automatically when approvals reach the
// threshold, and exactly once.
type Proposal struct {
	ID        uuid.UUID       `json:"id"`
	Action    ProposalAction  `json:"action"`
	Payload   string          `json:"payload"` // JSON, interpreted by the registered executor
	Proposer  string          `json:"proposer"`
	Approvers map[string]bool `json:"approvers"`
	Threshold int             `json:"threshold"`
	Executed  bool            `json:"executed"`
	Deadline  time.Time       `json:"deadline"`
	CreatedAt time.Time       `json:"created_at"`
}

// ApprovalCount returns the number of distinct approvals collected so far.
func (p *Proposal) ApprovalCount() int {
	return len(p.Approvers)
}

// Clone returns a copy with its own approvers map, safe to read after the
// originating lock is released.
func (p *Proposal) Clone() *Proposal {
	c := *p
	c.Approvers = make(map[string]bool, len(p.Approvers))
	for a := range p.Approvers {
		c.Approvers[a] = true
	}
	return &c
}

// Expired reports whether the proposal deadline has passed without execution.
func (p *Proposal) Expired(now time.Time) bool {
	return !p.Executed && now.After(p.Deadline)
}
