package apperror

// Stable error codes. The prefix distinguishes expected control-flow
// rejections (VAULT/STRAT/SAFE) from infrastructure failures (SYS).
const (
	CodeInvalidAmount      = "VAULT_001"
	CodeInsufficientShares = "VAULT_002"
	CodeNoActiveStrategy   = "VAULT_003"
	CodeInvalidStrategy    = "VAULT_004"
	CodeWithdrawalFailed   = "VAULT_005"

	CodeProtocolError         = "STRAT_001"
	CodeInsufficientLiquidity = "STRAT_002"
	CodeRebalanceFailed       = "STRAT_003"

	CodeBlacklisted       = "SAFE_001"
	CodeLimitsExceeded    = "SAFE_002"
	CodeRoleNotAuthorized = "SAFE_003"
	CodeAlreadyExecuted   = "SAFE_004"
	CodePaused            = "SAFE_005"
	CodeProposalNotFound  = "SAFE_006"
	CodeProposalExpired   = "SAFE_007"

	CodeReportNotFound = "AUDIT_001"

	CodeInvalidCredentials = "AUTH_001"
	CodeInvalidToken       = "AUTH_002"

	CodeDatabase = "SYS_001"
	CodeInternal = "SYS_002"
)
