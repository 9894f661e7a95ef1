package dto

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	KeyID  string `json:"key_id" binding:"required,safe_id"`
	APIKey string `json:"api_key" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest is the request body for a vault deposit. Amount is a
// decimal string in asset units, e.g. "1000.5".
type DepositRequest struct {
	Address string `json:"address" binding:"required,safe_id"`
	Amount  string `json:"amount" binding:"required"`
}

// DepositResponse carries the shares minted for a deposit.
type DepositResponse struct {
	Shares string `json:"shares"`
}

// WithdrawRequest is the request body for a vault withdrawal. Shares is a
// decimal string on the same 18-decimal scale as amounts.
type WithdrawRequest struct {
	Address string `json:"address" binding:"required,safe_id"`
	Shares  string `json:"shares" binding:"required"`
}

// WithdrawResponse carries the amount paid out for a withdrawal.
type WithdrawResponse struct {
	Amount string `json:"amount"`
}

// AccountResponse describes one share account.
type AccountResponse struct {
	Address string `json:"address"`
	Shares  string `json:"shares"`
	Balance string `json:"balance"`
}

// VaultStatsResponse is the aggregate vault state.
type VaultStatsResponse struct {
	TotalShares   string `json:"total_shares"`
	PricePerShare string `json:"price_per_share"`
	LiquidBuffer  string `json:"liquid_buffer"`
	PauseState    string `json:"pause_state"`
}

// StrategyResponse describes one registered strategy.
type StrategyResponse struct {
	ID           string `json:"id"`
	Protocol     string `json:"protocol"`
	Kind         string `json:"kind"`
	Asset        string `json:"asset"`
	RiskTier     int    `json:"risk_tier"`
	Healthy      bool   `json:"healthy"`
	Active       bool   `json:"active"`
	CachedAssets string `json:"cached_assets"`
	CachedAPYBps int64  `json:"cached_apy_bps"`
}

// RegisterStrategyRequest is the request body for registering a new
// simulator-backed strategy adapter.
type RegisterStrategyRequest struct {
	ID           string `json:"id" binding:"required,safe_id"`
	Kind         string `json:"kind" binding:"required"`
	Protocol     string `json:"protocol" binding:"required,safe_id"`
	Asset        string `json:"asset" binding:"required,safe_id"`
	RiskTier     int    `json:"risk_tier" binding:"required,min=1,max=10"`
	RateBps      int64  `json:"rate_bps"`
	StaticAPYBps int64  `json:"static_apy_bps"`
}

// RebalanceRequest is the request body for a capital move between
// strategies.
type RebalanceRequest struct {
	FromID    string  `json:"from_id" binding:"required,safe_id"`
	ToID      string  `json:"to_id" binding:"required,safe_id"`
	Amount    string  `json:"amount" binding:"required"`
	MinOutput *string `json:"min_output,omitempty"`
	Deadline  *int64  `json:"deadline,omitempty"` // Unix timestamp
}

// RebalanceResponse is the receipt for a completed rebalance.
type RebalanceResponse struct {
	FromID        string `json:"from_id"`
	ToID          string `json:"to_id"`
	Requested     string `json:"requested"`
	Moved         string `json:"moved"`
	ExecutionCost string `json:"execution_cost"`
	CompletedAt   string `json:"completed_at"`
}

// EmergencyWithdrawResponse carries the amount recovered into the liquid
// buffer.
type EmergencyWithdrawResponse struct {
	Recovered string `json:"recovered"`
}

// PauseRequest is the request body for pause operations.
type PauseRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListEntryRequest is the request body for blacklist/whitelist additions.
type ListEntryRequest struct {
	Address string `json:"address" binding:"required,safe_id"`
	Reason  string `json:"reason" binding:"required,max=500"`
}

// ProposalRequest is the request body for opening a multisig proposal.
type ProposalRequest struct {
	Action  string `json:"action" binding:"required"`
	Payload string `json:"payload"`
}

// ProposalResponse describes a multisig proposal.
type ProposalResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Payload   string `json:"payload,omitempty"`
	Proposer  string `json:"proposer"`
	Approvals int    `json:"approvals"`
	Threshold int    `json:"threshold"`
	Executed  bool   `json:"executed"`
	Deadline  string `json:"deadline"`
}

// AuditEntryResponse is one audit trail entry.
type AuditEntryResponse struct {
	ID        uint64 `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Category  string `json:"category"`
	Payload   string `json:"payload,omitempty"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
	Verified  bool   `json:"verified"`
	AnchorRef string `json:"anchor_ref,omitempty"`
}

// ReportRequest is the request body for generating a compliance report.
// Timestamps are RFC 3339.
type ReportRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// ReportResponse is a finalized compliance report.
type ReportResponse struct {
	ID           string           `json:"id"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	TotalEntries int64            `json:"total_entries"`
	Succeeded    int64            `json:"succeeded"`
	Failed       int64            `json:"failed"`
	ByCategory   map[string]int64 `json:"by_category"`
	Finalized    bool             `json:"finalized"`
	GeneratedAt  string           `json:"generated_at"`
}
