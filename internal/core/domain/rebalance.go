package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// RebalanceRequest describes one capital move between two adapters. It is
// ephemeral: created and resolved within a single atomic operation.
type RebalanceRequest struct {
	FromID    string      `json:"from_id"`
	ToID      string      `json:"to_id"`
	Amount    sdkmath.Int `json:"amount"`
	MinOutput sdkmath.Int `json:"min_output"`
	Deadline  time.Time   `json:"deadline"`
}

// RebalanceReceipt summarizes a completed rebalance for the audit trail.
type RebalanceReceipt struct {
	FromID        string      `json:"from_id"`
	ToID          string      `json:"to_id"`
	Requested     sdkmath.Int `json:"requested"`
	Moved         sdkmath.Int `json:"moved"`          // amount actually placed into the destination
	ExecutionCost sdkmath.Int `json:"execution_cost"` // requested minus received (slippage/fees)
	CompletedAt   time.Time   `json:"completed_at"`
}
