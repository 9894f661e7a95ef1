package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"yield-vault-engine/config"
	"yield-vault-engine/internal/adapter/anchor"
	httpHandler "yield-vault-engine/internal/adapter/http/handler"
	memStorage "yield-vault-engine/internal/adapter/storage/memory"
	pgStorage "yield-vault-engine/internal/adapter/storage/postgres"
	redisStorage "yield-vault-engine/internal/adapter/storage/redis"
	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/internal/monitor"
	"yield-vault-engine/internal/service"
	"yield-vault-engine/internal/strategy"
	"yield-vault-engine/pkg/logger"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("asset", cfg.Vault.AssetSymbol).
		Msg("Starting Yield Vault Engine")

	ctx := context.Background()
	var healthCheckers []ports.HealthChecker

	// Audit persistence: PostgreSQL when enabled, otherwise the trail
	// lives in memory for the lifetime of the process.
	var auditRepo ports.AuditRepository
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		auditRepo = pgStorage.NewAuditRepo(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL connected")
	}

	// Daily volume counters: Redis when enabled, otherwise in memory.
	var volumeStore ports.VolumeStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		volumeStore = redisStorage.NewVolumeStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	} else {
		volumeStore = memStorage.NewVolumeStore()
	}

	// Audit trail with external anchoring
	auditSvc := service.NewAuditService(ctx, auditRepo, anchor.NewLogSink(log), logger.Component(log, "audit"))

	// Safety envelope
	maxTx, err := domain.ParseAmount(cfg.Vault.MaxTxAmount)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid vault.max_tx_amount")
	}
	maxDaily, err := domain.ParseAmount(cfg.Vault.MaxDailyVolume)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid vault.max_daily_volume")
	}
	if len(cfg.Vault.Admins) == 0 {
		log.Fatal().Msg("vault.admins must name at least one operator")
	}
	rootAdmin := cfg.Vault.Admins[0]

	safetySvc := service.NewSafetyService(service.SafetyConfig{
		Admins:            cfg.Vault.Admins,
		Approvers:         cfg.Vault.Approvers,
		MultisigThreshold: cfg.Vault.MultisigThreshold,
		MaxTxAmount:       maxTx,
		MaxDailyVolume:    maxDaily,
		ProposalTTL:       cfg.Vault.ProposalTTL,
	}, volumeStore, auditSvc, logger.Component(log, "safety"))

	// Strategy registry with simulated protocol backends
	registrySvc := service.NewRegistryService(safetySvc, auditSvc, logger.Component(log, "registry"))
	for _, sc := range cfg.Vault.Strategies {
		proto := strategy.NewSimProtocol(sc.RateBps)
		adapter, err := strategy.New(domain.StrategyKind(sc.Kind), sc.ID, proto, sc.StaticAPYBps, log)
		if err != nil {
			log.Fatal().Err(err).Str("strategy", sc.ID).Msg("Failed to build strategy adapter")
		}
		record := domain.StrategyRecord{
			ID:       sc.ID,
			Protocol: sc.Protocol,
			Kind:     domain.StrategyKind(sc.Kind),
			Asset:    sc.Asset,
			RiskTier: sc.RiskTier,
		}
		if err := registrySvc.Register(ctx, rootAdmin, adapter, record); err != nil {
			log.Fatal().Err(err).Str("strategy", sc.ID).Msg("Failed to register strategy")
		}
		log.Info().Str("strategy", sc.ID).Str("kind", sc.Kind).Msg("Strategy registered")
	}

	// Vault ledger and rebalancer share one writer lock
	engine := &sync.RWMutex{}
	vaultSvc := service.NewVaultService(engine, registrySvc, safetySvc, auditSvc, logger.Component(log, "vault"))
	rebalanceSvc := service.NewRebalanceService(engine, registrySvc, safetySvc, auditSvc, vaultSvc, logger.Component(log, "rebalance"))

	if cfg.Vault.ActiveStrategy != "" {
		if err := vaultSvc.SetStrategy(ctx, rootAdmin, cfg.Vault.ActiveStrategy); err != nil {
			log.Fatal().Err(err).Str("strategy", cfg.Vault.ActiveStrategy).Msg("Failed to activate strategy")
		}
	}

	// Multisig executors: quorum proposals act through the same service
	// calls as direct admin operations, under the root admin identity.
	registerExecutors(safetySvc, vaultSvc, rootAdmin, log)

	// Health/APY monitor
	if cfg.Monitor.Enabled {
		mon := monitor.New(registrySvc, auditSvc, logger.Component(log, "monitor"))
		if err := mon.Register(cfg.Monitor.Schedule); err != nil {
			log.Fatal().Err(err).Msg("Invalid monitor schedule")
		}
		mon.Start()
		defer mon.Stop()
		log.Info().Str("schedule", cfg.Monitor.Schedule).Msg("Strategy monitor started")
	}

	// Operator authentication
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	hashSvc := service.NewArgon2HashService()
	keys := make([]service.OperatorKey, 0, len(cfg.Vault.AdminKeys))
	for _, k := range cfg.Vault.AdminKeys {
		keys = append(keys, service.OperatorKey{ID: k.ID, Hash: k.Hash})
	}
	authSvc := service.NewAuthService(keys, hashSvc, tokenSvc, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		VaultSvc:       vaultSvc,
		RebalanceSvc:   rebalanceSvc,
		Registry:       registrySvc,
		SafetySvc:      safetySvc,
		AuditSvc:       auditSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// registerExecutors binds each multisig proposal action to its service
// call. Payloads are small JSON documents authored by the proposer.
func registerExecutors(safetySvc *service.SafetyServiceImpl, vaultSvc *service.VaultServiceImpl, admin string, log zerolog.Logger) {
	safetySvc.RegisterExecutor(domain.ProposalActionSetStrategy, func(ctx context.Context, payload string) error {
		var p struct {
			StrategyID string `json:"strategy_id"`
		}
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return fmt.Errorf("decoding SET_STRATEGY payload: %w", err)
		}
		return vaultSvc.SetStrategy(ctx, admin, p.StrategyID)
	})

	safetySvc.RegisterExecutor(domain.ProposalActionPause, func(ctx context.Context, payload string) error {
		reason := decodeReason(payload)
		return safetySvc.ActivateEmergencyPause(ctx, admin, reason)
	})

	safetySvc.RegisterExecutor(domain.ProposalActionUnpause, func(ctx context.Context, payload string) error {
		return safetySvc.DeactivatePause(ctx, admin)
	})

	safetySvc.RegisterExecutor(domain.ProposalActionPermanentPause, func(ctx context.Context, payload string) error {
		reason := decodeReason(payload)
		return safetySvc.ActivatePermanentPause(ctx, admin, reason)
	})

	safetySvc.RegisterExecutor(domain.ProposalActionBlacklist, func(ctx context.Context, payload string) error {
		var p struct {
			Address string `json:"address"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return fmt.Errorf("decoding BLACKLIST payload: %w", err)
		}
		return safetySvc.Blacklist(ctx, admin, p.Address, p.Reason)
	})

	safetySvc.RegisterExecutor(domain.ProposalActionSetLimits, func(ctx context.Context, payload string) error {
		var p struct {
			MaxTxAmount    string `json:"max_tx_amount"`
			MaxDailyVolume string `json:"max_daily_volume"`
		}
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return fmt.Errorf("decoding SET_LIMITS payload: %w", err)
		}
		maxTx, maxDaily := sdkmath.Int{}, sdkmath.Int{}
		if p.MaxTxAmount != "" {
			v, err := domain.ParseAmount(p.MaxTxAmount)
			if err != nil {
				return fmt.Errorf("invalid max_tx_amount: %w", err)
			}
			maxTx = v
		}
		if p.MaxDailyVolume != "" {
			v, err := domain.ParseAmount(p.MaxDailyVolume)
			if err != nil {
				return fmt.Errorf("invalid max_daily_volume: %w", err)
			}
			maxDaily = v
		}
		return safetySvc.SetLimits(ctx, admin, maxTx, maxDaily)
	})

	log.Debug().Msg("multisig executors registered")
}

// decodeReason extracts a reason from either a bare string or a
// {"reason": "..."} document.
func decodeReason(payload string) string {
	var p struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(payload), &p); err == nil && p.Reason != "" {
		return p.Reason
	}
	return payload
}
