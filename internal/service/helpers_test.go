package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/strategy"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const adminActor = "admin"

func amt(units int64) sdkmath.Int { return domain.NewAmount(units) }

// fakeVolumes is an in-memory VolumeStore for tests.
type fakeVolumes struct {
	mu     sync.Mutex
	totals map[string]int64
	getErr error
	addErr error
}

func newFakeVolumes() *fakeVolumes {
	return &fakeVolumes{totals: make(map[string]int64)}
}

func (f *fakeVolumes) Add(ctx context.Context, actor, day string, micro int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.totals[actor+":"+day] += micro
	return f.totals[actor+":"+day], nil
}

func (f *fakeVolumes) Get(ctx context.Context, actor, day string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.totals[actor+":"+day], nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func newTestAudit() *AuditServiceImpl {
	return NewAuditService(context.Background(), nil, nil, testLogger())
}

func testSafetyConfig() SafetyConfig {
	return SafetyConfig{
		Admins:            []string{adminActor},
		Approvers:         []string{"alice", "bob", "carol", "dave"},
		MultisigThreshold: 3,
		MaxTxAmount:       amt(10_000),
		MaxDailyVolume:    amt(50_000),
		ProposalTTL:       24 * time.Hour,
	}
}

func newTestSafety(audit *AuditServiceImpl) (*SafetyServiceImpl, *fakeVolumes) {
	volumes := newFakeVolumes()
	return NewSafetyService(testSafetyConfig(), volumes, audit, testLogger()), volumes
}

// vaultFixture wires a registry with two live strategies and an active
// vault ledger on top of them.
type vaultFixture struct {
	engine    *sync.RWMutex
	vault     *VaultServiceImpl
	rebalance *RebalanceServiceImpl
	registry  *RegistryServiceImpl
	safety    *SafetyServiceImpl
	audit     *AuditServiceImpl
	volumes   *fakeVolumes
	protoA    *strategy.SimProtocol
	protoB    *strategy.SimProtocol
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()
	ctx := context.Background()

	audit := newTestAudit()
	safety, volumes := newTestSafety(audit)
	registry := NewRegistryService(safety, audit, testLogger())

	protoA := strategy.NewSimProtocol(500)
	adapterA, err := strategy.New(domain.StrategyKindMoneyMarket, "mm-usdc", protoA, 450, testLogger())
	require.NoError(t, err)
	require.NoError(t, registry.Register(ctx, adminActor, adapterA, domain.StrategyRecord{
		ID:       "mm-usdc",
		Protocol: "simbank",
		Kind:     domain.StrategyKindMoneyMarket,
		Asset:    "USDC",
		RiskTier: 2,
	}))

	protoB := strategy.NewSimProtocol(800)
	adapterB, err := strategy.New(domain.StrategyKindAMMLiquidity, "amm-usdc", protoB, 700, testLogger())
	require.NoError(t, err)
	require.NoError(t, registry.Register(ctx, adminActor, adapterB, domain.StrategyRecord{
		ID:       "amm-usdc",
		Protocol: "simswap",
		Kind:     domain.StrategyKindAMMLiquidity,
		Asset:    "USDC",
		RiskTier: 5,
	}))

	engine := &sync.RWMutex{}
	vault := NewVaultService(engine, registry, safety, audit, testLogger())
	require.NoError(t, vault.SetStrategy(ctx, adminActor, "mm-usdc"))

	rebalance := NewRebalanceService(engine, registry, safety, audit, vault, testLogger())

	return &vaultFixture{
		engine:    engine,
		vault:     vault,
		rebalance: rebalance,
		registry:  registry,
		safety:    safety,
		audit:     audit,
		volumes:   volumes,
		protoA:    protoA,
		protoB:    protoB,
	}
}
