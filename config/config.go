package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Enabled         bool          `mapstructure:"enabled"` // false = audit trail kept in memory only
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"` // false = daily volume counters kept in memory
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// AdminKey is a configured operator credential. Hash is an Argon2id encoded
// hash of the operator's API key; the plaintext never appears in config.
type AdminKey struct {
	ID   string `mapstructure:"id"`
	Hash string `mapstructure:"hash"`
}

// VaultConfig holds the ledger and safety envelope parameters.
// Amounts are decimal strings in whole asset units (e.g. "50000"), converted
// to 10^18 fixed point at startup.
type VaultConfig struct {
	AssetSymbol       string           `mapstructure:"asset_symbol"`
	MaxTxAmount       string           `mapstructure:"max_tx_amount"`
	MaxDailyVolume    string           `mapstructure:"max_daily_volume"`
	MultisigThreshold int              `mapstructure:"multisig_threshold"`
	Approvers         []string         `mapstructure:"approvers"`
	Admins            []string         `mapstructure:"admins"`
	ProposalTTL       time.Duration    `mapstructure:"proposal_ttl"`
	AdminKeys         []AdminKey       `mapstructure:"admin_keys"`
	Strategies        []StrategyConfig `mapstructure:"strategies"`
	ActiveStrategy    string           `mapstructure:"active_strategy"`
}

// StrategyConfig describes one simulated strategy adapter registered at
// startup. RateBps drives the simulated protocol's accrual; StaticAPYBps is
// the fallback advertised APY.
type StrategyConfig struct {
	ID           string `mapstructure:"id"`
	Kind         string `mapstructure:"kind"`
	Protocol     string `mapstructure:"protocol"`
	Asset        string `mapstructure:"asset"`
	RiskTier     int    `mapstructure:"risk_tier"`
	RateBps      int64  `mapstructure:"rate_bps"`
	StaticAPYBps int64  `mapstructure:"static_apy_bps"`
}

type MonitorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"` // cron spec for health/APY refresh
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: YVE_ (Yield Vault Engine).
// Nested keys use underscore: YVE_DATABASE_HOST, YVE_VAULT_MAX_TX_AMOUNT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "yield_vault")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "12h")
	v.SetDefault("jwt.issuer", "yield-vault-engine")
	v.SetDefault("vault.asset_symbol", "USDC")
	v.SetDefault("vault.max_tx_amount", "100000")
	v.SetDefault("vault.max_daily_volume", "500000")
	v.SetDefault("vault.multisig_threshold", 3)
	v.SetDefault("vault.approvers", []string{})
	v.SetDefault("vault.admins", []string{})
	v.SetDefault("vault.proposal_ttl", "72h")
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.schedule", "@every 5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: YVE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("YVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Vault.MultisigThreshold < 1 {
		return nil, fmt.Errorf("vault.multisig_threshold must be at least 1")
	}
	if len(cfg.Vault.Approvers) > 0 && cfg.Vault.MultisigThreshold > len(cfg.Vault.Approvers) {
		return nil, fmt.Errorf("vault.multisig_threshold exceeds the number of approvers")
	}

	return &cfg, nil
}
