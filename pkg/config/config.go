package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the platform.
	EnvPrefix = "LCFS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Compliance ComplianceConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
	Refresh    RefreshConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := cfg.Compliance.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LCFS_APP_ENV" default:"dev" validate:"oneof=dev staging prod"`
	Port         string `envconfig:"LCFS_APP_PORT" default:"8080" validate:"numeric"`
	LogLevel     string `envconfig:"LCFS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LCFS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"LCFS_DB_DSN"`

	MaxOpenConns    int           `envconfig:"LCFS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LCFS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LCFS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LCFS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"LCFS_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LCFS_REDIS_URL"`
	Address      string        `envconfig:"LCFS_REDIS_ADDR"`
	Password     string        `envconfig:"LCFS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LCFS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LCFS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LCFS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LCFS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LCFS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LCFS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ComplianceConfig carries the regulated constants. Rates are configuration,
// never code: the penalty rate and transition year change by order in council.
type ComplianceConfig struct {
	LegislationTransitionYear int    `envconfig:"LCFS_LEGISLATION_TRANSITION_YEAR" default:"2024"`
	PenaltyRatePerUnit        string `envconfig:"LCFS_PENALTY_RATE_PER_UNIT" default:"600"`
	GovernmentOrganizationID  int64  `envconfig:"LCFS_GOVERNMENT_ORGANIZATION_ID" default:"1"`
}

func (c ComplianceConfig) validate() error {
	if c.LegislationTransitionYear < 2010 {
		return fmt.Errorf("legislation transition year %d is implausible", c.LegislationTransitionYear)
	}
	if _, err := decimal.NewFromString(c.PenaltyRatePerUnit); err != nil {
		return fmt.Errorf("invalid penalty rate %q: %w", c.PenaltyRatePerUnit, err)
	}
	return nil
}

// PenaltyRate returns the configured penalty rate as a decimal.
func (c ComplianceConfig) PenaltyRate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.PenaltyRatePerUnit)
	if err != nil {
		return decimal.NewFromInt(600)
	}
	return rate
}

type GCPConfig struct {
	ProjectID string `envconfig:"LCFS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"LCFS_PUBSUB_NOTIFICATION_TOPIC" default:"lcfs-notifications"`
	NotificationSubscription string `envconfig:"LCFS_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"LCFS_OUTBOX_BATCH_SIZE" default:"50" validate:"min=1"`
	PollInterval time.Duration `envconfig:"LCFS_OUTBOX_POLL_INTERVAL" default:"500ms" validate:"min=1ms"`
	MaxAttempts  int           `envconfig:"LCFS_OUTBOX_MAX_ATTEMPTS" default:"10" validate:"min=1"`
}

type RefreshConfig struct {
	Interval    time.Duration `envconfig:"LCFS_REFRESH_INTERVAL" default:"1m"`
	LockTTL     time.Duration `envconfig:"LCFS_REFRESH_LOCK_TTL" default:"5m"`
	MaxRetries  int           `envconfig:"LCFS_REFRESH_MAX_RETRIES" default:"5"`
	BaseBackoff time.Duration `envconfig:"LCFS_REFRESH_BASE_BACKOFF" default:"250ms"`
}
