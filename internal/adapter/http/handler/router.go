package handler

import (
	"yield-vault-engine/internal/adapter/http/middleware"
	"yield-vault-engine/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	VaultSvc       ports.VaultService
	RebalanceSvc   ports.RebalanceService
	Registry       ports.StrategyRegistry
	SafetySvc      ports.SafetyService
	AuditSvc       ports.AuditService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (verifies PostgreSQL and Redis when enabled)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	v1.POST("/auth/login", authHandler.Login)

	vaultHandler := NewVaultHandler(deps.VaultSvc, deps.SafetySvc)
	vault := v1.Group("/vault")
	{
		vault.POST("/deposit", vaultHandler.Deposit)
		vault.POST("/withdraw", vaultHandler.Withdraw)
		vault.GET("/accounts/:address", vaultHandler.GetAccount)
		vault.GET("/stats", vaultHandler.GetStats)
	}

	// --- JWT-authenticated routes (operator surface) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminHandler := NewAdminHandler(deps.VaultSvc, deps.RebalanceSvc, deps.Registry, deps.SafetySvc, deps.Logger)
	auditHandler := NewAuditHandler(deps.AuditSvc)

	admin := v1.Group("/admin", jwtAuth)
	{
		admin.GET("/strategies", adminHandler.ListStrategies)
		admin.POST("/strategies", adminHandler.RegisterStrategy)
		admin.DELETE("/strategies/:id", adminHandler.DeregisterStrategy)
		admin.POST("/strategies/:id/activate", adminHandler.ActivateStrategy)
		admin.POST("/strategies/:id/emergency-withdraw", adminHandler.EmergencyWithdraw)
		admin.POST("/rebalance", adminHandler.Rebalance)

		admin.POST("/pause", adminHandler.Pause)
		admin.POST("/unpause", adminHandler.Unpause)
		admin.POST("/permanent-pause", adminHandler.PermanentPause)
		admin.POST("/blacklist", adminHandler.Blacklist)
		admin.POST("/whitelist", adminHandler.Whitelist)

		admin.POST("/proposals", adminHandler.CreateProposal)
		admin.POST("/proposals/:id/approve", adminHandler.ApproveProposal)
		admin.GET("/proposals/:id", adminHandler.GetProposal)

		admin.GET("/audit", auditHandler.Query)
		admin.POST("/audit/reports", auditHandler.GenerateReport)
		admin.GET("/audit/reports/:id", auditHandler.GetReport)
	}

	return r
}
