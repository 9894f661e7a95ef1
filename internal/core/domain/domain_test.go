package domain

import (
	"math"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected sdkmath.Int
		wantErr  bool
	}{
		{"1000", NewAmount(1000), false},
		{"0.5", Scale().QuoRaw(2), false},
		{"1.000000000000000001", Scale().AddRaw(1), false},
		{" 42 ", NewAmount(42), false},
		{".25", Scale().QuoRaw(4), false},
		{"", sdkmath.Int{}, true},
		{"-5", sdkmath.Int{}, true},
		{"abc", sdkmath.Int{}, true},
		{"1.0000000000000000001", sdkmath.Int{}, true}, // 19 decimal places
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestFormatAmount_RoundTrip(t *testing.T) {
	for _, s := range []string{"1000", "0.5", "1234.25"} {
		amt, err := ParseAmount(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatAmount(amt))
	}
}

func TestMicroUnits(t *testing.T) {
	// 1 whole unit = 1e6 micro units.
	assert.Equal(t, int64(1_000_000), MicroUnits(NewAmount(1)))

	// Sub-micro dust rounds up so limits cannot be evaded with dust.
	assert.Equal(t, int64(1), MicroUnits(sdkmath.NewInt(1)))
	assert.Equal(t, int64(0), MicroUnits(ZeroAmount()))
}

func TestNewShareAccount(t *testing.T) {
	now := time.Now().UTC()
	acct := NewShareAccount("0xdepositor", now)

	assert.Equal(t, "0xdepositor", acct.Owner)
	assert.True(t, acct.Shares.IsZero())
	assert.Equal(t, now, acct.CreatedAt)
}

func TestValidRiskTier(t *testing.T) {
	assert.False(t, ValidRiskTier(0))
	assert.True(t, ValidRiskTier(1))
	assert.True(t, ValidRiskTier(10))
	assert.False(t, ValidRiskTier(11))
}

func TestProposal_ApprovalCountAndExpiry(t *testing.T) {
	now := time.Now().UTC()
	p := &Proposal{
		ID:        uuid.New(),
		Action:    ProposalActionPause,
		Proposer:  "0xa1",
		Approvers: map[string]bool{"0xa1": true, "0xa2": true},
		Threshold: 3,
		Deadline:  now.Add(time.Hour),
		CreatedAt: now,
	}

	assert.Equal(t, 2, p.ApprovalCount())
	assert.False(t, p.Expired(now))
	assert.True(t, p.Expired(now.Add(2*time.Hour)))

	p.Executed = true
	assert.False(t, p.Expired(now.Add(2*time.Hour)), "executed proposals never expire")
}

func TestMicroUnitsRoundingAndClamp(t *testing.T) {
	// One asset unit is 10^6 micro-units.
	assert.Equal(t, int64(1_000_000), MicroUnits(NewAmount(1)))

	// Fractional micro-units round up so the volume counter never
	// undercounts.
	half := sdkmath.NewIntWithDecimal(1, MicroDecimals).QuoRaw(2)
	assert.Equal(t, int64(1), MicroUnits(half))
	assert.Equal(t, int64(0), MicroUnits(sdkmath.ZeroInt()))

	// Amounts past the int64 counter range clamp instead of wrapping.
	huge := NewAmount(1).Mul(sdkmath.NewIntWithDecimal(1, 30))
	assert.Equal(t, int64(math.MaxInt64), MicroUnits(huge))
}
