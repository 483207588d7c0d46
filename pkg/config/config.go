package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable read by the engine.
const EnvPrefix = "NETURE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Relay        RelayConfig
	Settlement   SettlementConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NETURE_APP_ENV" required:"true"`
	Port         string `envconfig:"NETURE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NETURE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NETURE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NETURE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"NETURE_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"NETURE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NETURE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NETURE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NETURE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NETURE_REDIS_URL"`
	Address      string        `envconfig:"NETURE_REDIS_ADDR"`
	Password     string        `envconfig:"NETURE_REDIS_PASSWORD"`
	DB           int           `envconfig:"NETURE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NETURE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NETURE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NETURE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NETURE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NETURE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"NETURE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	RelayTopic        string `envconfig:"NETURE_PUBSUB_RELAY_TOPIC" default:"order-relay-events"`
	SettlementTopic   string `envconfig:"NETURE_PUBSUB_SETTLEMENT_TOPIC" default:"settlement-events"`
	RelaySubscription string `envconfig:"NETURE_PUBSUB_RELAY_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NETURE_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NETURE_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NETURE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"NETURE_OUTBOX_RETENTION_DAYS" default:"14"`
}

// RelayConfig bounds the import retry loop.
type RelayConfig struct {
	RetryCeiling int `envconfig:"NETURE_RELAY_RETRY_CEILING" default:"3"`
}

// SettlementConfig drives the periodic closing job.
type SettlementConfig struct {
	// PeriodDays is the length of a billing period closed by the scheduler.
	PeriodDays int `envconfig:"NETURE_SETTLEMENT_PERIOD_DAYS" default:"30"`
	// DefaultBillingUnit is applied when the scheduler trigger omits one.
	DefaultBillingUnit string `envconfig:"NETURE_SETTLEMENT_BILLING_UNIT" default:"approved_request"`
	DefaultCurrency    string `envconfig:"NETURE_SETTLEMENT_CURRENCY" default:"KRW"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NETURE_FEATURE_AUTO_MIGRATE" default:"false"`
}
