package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := DepositRequest{
		Address: "  alice  ",
		Amount:  "  1000.5  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Address)
	assert.Equal(t, "1000.5", req.Amount)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := PauseRequest{
		Reason: "oracle <script>alert('x')</script> divergence",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Reason, "&lt;script&gt;")
	assert.NotContains(t, req.Reason, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	min := "  250  "
	req := RebalanceRequest{
		FromID:    "mm-usdc",
		ToID:      "amm-usdc",
		Amount:    "300",
		MinOutput: &min,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "250", *req.MinOutput)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RebalanceRequest{
		FromID: "mm-usdc",
		ToID:   "amm-usdc",
		Amount: "300",
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.MinOutput)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"mm-usdc",
		"LEND_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"mm usdc",     // space
		"mm<usdc>",    // angle brackets
		"mm;DROP",     // semicolon
		"",            // empty
		"hello world", // space
		"mm\nusdc",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
