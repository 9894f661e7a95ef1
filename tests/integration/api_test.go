package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"yield-vault-engine/internal/adapter/anchor"
	httpHandler "yield-vault-engine/internal/adapter/http/handler"
	redisStorage "yield-vault-engine/internal/adapter/storage/redis"
	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/service"
	"yield-vault-engine/internal/strategy"
	"yield-vault-engine/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack over an in-memory Redis
// (miniredis) and simulated protocol backends. It exercises the real HTTP
// layer, middleware, handlers, services and the Redis volume store
// end-to-end.

const (
	adminKeyID  = "ops-root"
	adminAPIKey = "integration-api-key"
)

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	tokens *service.JWTTokenService
	protoA *strategy.SimProtocol
	protoB *strategy.SimProtocol
	token  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	volumeStore := redisStorage.NewVolumeStore(rdb)

	log := logger.New("error", false)
	auditSvc := service.NewAuditService(ctx, nil, anchor.NewNoopSink(), log)

	safetySvc := service.NewSafetyService(service.SafetyConfig{
		Admins:            []string{adminKeyID},
		Approvers:         []string{"alice", "bob", "carol", "dave"},
		MultisigThreshold: 3,
		MaxTxAmount:       domain.NewAmount(100_000),
		MaxDailyVolume:    domain.NewAmount(500_000),
		ProposalTTL:       time.Hour,
	}, volumeStore, auditSvc, log)

	registrySvc := service.NewRegistryService(safetySvc, auditSvc, log)

	protoA := strategy.NewSimProtocol(500)
	adapterA, err := strategy.New(domain.StrategyKindMoneyMarket, "mm-usdc", protoA, 450, log)
	require.NoError(t, err)
	require.NoError(t, registrySvc.Register(ctx, adminKeyID, adapterA, domain.StrategyRecord{
		ID: "mm-usdc", Protocol: "simbank", Kind: domain.StrategyKindMoneyMarket, Asset: "USDC", RiskTier: 2,
	}))

	protoB := strategy.NewSimProtocol(800)
	adapterB, err := strategy.New(domain.StrategyKindAMMLiquidity, "amm-usdc", protoB, 700, log)
	require.NoError(t, err)
	require.NoError(t, registrySvc.Register(ctx, adminKeyID, adapterB, domain.StrategyRecord{
		ID: "amm-usdc", Protocol: "simswap", Kind: domain.StrategyKindAMMLiquidity, Asset: "USDC", RiskTier: 5,
	}))

	engine := &sync.RWMutex{}
	vaultSvc := service.NewVaultService(engine, registrySvc, safetySvc, auditSvc, log)
	require.NoError(t, vaultSvc.SetStrategy(ctx, adminKeyID, "mm-usdc"))
	rebalanceSvc := service.NewRebalanceService(engine, registrySvc, safetySvc, auditSvc, vaultSvc, log)

	// Executor wiring mirrors the production binary.
	safetySvc.RegisterExecutor(domain.ProposalActionPause, func(ctx context.Context, payload string) error {
		return safetySvc.ActivateEmergencyPause(ctx, adminKeyID, payload)
	})

	tokenSvc := service.NewJWTTokenService("integration-jwt-secret-32bytes!!", 24*time.Hour, "vaultd-test")
	hashSvc := service.NewArgon2HashService()
	hash, err := hashSvc.Hash(adminAPIKey)
	require.NoError(t, err)
	authSvc := service.NewAuthService([]service.OperatorKey{{ID: adminKeyID, Hash: hash}}, hashSvc, tokenSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:      authSvc,
		VaultSvc:     vaultSvc,
		RebalanceSvc: rebalanceSvc,
		Registry:     registrySvc,
		SafetySvc:    safetySvc,
		AuditSvc:     auditSvc,
		TokenSvc:     tokenSvc,
		Logger:       log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		rdb.Close()
		mr.Close()
	})

	return &testApp{server: server, redis: mr, tokens: tokenSvc, protoA: protoA, protoB: protoB}
}

func (a *testApp) post(t *testing.T, path, body, token string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (a *testApp) get(t *testing.T, path, token string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	if a.token != "" {
		return a.token
	}
	status, raw := a.post(t, "/api/v1/auth/login",
		fmt.Sprintf(`{"key_id":%q,"api_key":%q}`, adminKeyID, adminAPIKey), "")
	require.Equal(t, http.StatusOK, status, string(raw))

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	a.token = result.Data.Token
	return a.token
}

func data(t *testing.T, raw []byte, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// TestVaultLifecycle walks the whole flow: bootstrap deposit, yield
// accrual, a second depositor minting at the higher share price, a
// rebalance, and withdrawals.
func TestVaultLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	// Bootstrap: first deposit mints 1:1.
	status, raw := app.post(t, "/api/v1/vault/deposit", `{"address":"alice-vault","amount":"1000"}`, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	var dep struct {
		Shares string `json:"shares"`
	}
	data(t, raw, &dep)
	assert.Equal(t, "1000", dep.Shares)

	// Yield accrues: 1000 -> 1100 held by the strategy.
	app.protoA.Accrue(domain.NewAmount(100))

	// Second depositor mints at the higher price: 500 * 1000 / 1100.
	status, raw = app.post(t, "/api/v1/vault/deposit", `{"address":"bob-vault","amount":"500"}`, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	data(t, raw, &dep)
	assert.Equal(t, "454.545454545454545454", dep.Shares)

	// Price per share reflects the accrued yield.
	status, raw = app.get(t, "/api/v1/vault/stats", "")
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		TotalShares   string `json:"total_shares"`
		PricePerShare string `json:"price_per_share"`
	}
	data(t, raw, &stats)
	assert.Equal(t, "1.1", stats.PricePerShare)

	// Rebalance part of the position into the AMM strategy; the share
	// price must not move.
	status, raw = app.post(t, "/api/v1/admin/rebalance",
		`{"from_id":"mm-usdc","to_id":"amm-usdc","amount":"300"}`, token)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = app.get(t, "/api/v1/vault/stats", "")
	require.Equal(t, http.StatusOK, status)
	data(t, raw, &stats)
	assert.Equal(t, "1.1", stats.PricePerShare)

	// Alice redeems half her shares at the appreciated price.
	status, raw = app.post(t, "/api/v1/vault/withdraw", `{"address":"alice-vault","shares":"500"}`, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var wd struct {
		Amount string `json:"amount"`
	}
	data(t, raw, &wd)
	assert.Equal(t, "550", wd.Amount)
}

// TestDailyVolumeCapOverRedis drives the Redis-backed daily counter to its
// limit and past it.
func TestDailyVolumeCapOverRedis(t *testing.T) {
	app := newTestApp(t)

	// Cap is 500,000; five deposits of 100,000 fill it.
	for i := 0; i < 5; i++ {
		status, raw := app.post(t, "/api/v1/vault/deposit", `{"address":"whale","amount":"100000"}`, "")
		require.Equal(t, http.StatusCreated, status, string(raw))
	}

	status, raw := app.post(t, "/api/v1/vault/deposit", `{"address":"whale","amount":"1"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status, string(raw))

	// Another actor has an independent budget.
	status, raw = app.post(t, "/api/v1/vault/deposit", `{"address":"minnow","amount":"10"}`, "")
	assert.Equal(t, http.StatusCreated, status, string(raw))

	// A new UTC day resets the counter.
	app.redis.FastForward(49 * time.Hour)
	status, raw = app.post(t, "/api/v1/vault/deposit", `{"address":"whale","amount":"10"}`, "")
	assert.Equal(t, http.StatusCreated, status, string(raw))
}

// TestMultisigPauseFlow reaches a 3-of-5 quorum over HTTP and verifies the
// executed pause blocks deposits.
func TestMultisigPauseFlow(t *testing.T) {
	app := newTestApp(t)
	rootToken := app.login(t)

	status, raw := app.post(t, "/api/v1/admin/proposals",
		`{"action":"PAUSE","payload":"incident drill"}`, rootToken)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var proposal struct {
		ID        string `json:"id"`
		Approvals int    `json:"approvals"`
		Executed  bool   `json:"executed"`
	}
	data(t, raw, &proposal)
	assert.Equal(t, 1, proposal.Approvals)
	require.False(t, proposal.Executed)

	// Two more approvers push the proposal over the threshold.
	for _, approver := range []string{"alice", "bob"} {
		tok, _, err := app.tokens.Generate(approver)
		require.NoError(t, err)
		status, raw = app.post(t, "/api/v1/admin/proposals/"+proposal.ID+"/approve", "", tok)
		require.Equal(t, http.StatusOK, status, string(raw))
	}
	data(t, raw, &proposal)
	assert.True(t, proposal.Executed)

	status, raw = app.post(t, "/api/v1/vault/deposit", `{"address":"alice-vault","amount":"10"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, status, string(raw))

	// The executed pause is reversible by a direct admin call.
	status, raw = app.post(t, "/api/v1/admin/unpause", "", rootToken)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = app.post(t, "/api/v1/vault/deposit", `{"address":"alice-vault","amount":"10"}`, "")
	assert.Equal(t, http.StatusCreated, status, string(raw))
}
