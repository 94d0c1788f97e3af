package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "GIGDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Reset         ResetConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIGDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"GIGDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GIGDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIGDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GIGDESK_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"GIGDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIGDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIGDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIGDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ServiceConfig identifies which binary is running; set by each cmd.
type ServiceConfig struct {
	Kind string `envconfig:"GIGDESK_SERVICE_KIND" default:"api"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIGDESK_REDIS_URL"`
	Address      string        `envconfig:"GIGDESK_REDIS_ADDRESS"`
	Password     string        `envconfig:"GIGDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIGDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIGDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIGDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIGDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIGDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIGDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret              string `envconfig:"GIGDESK_JWT_SECRET" required:"true"`
	Issuer              string `envconfig:"GIGDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes   int    `envconfig:"GIGDESK_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLDays int    `envconfig:"GIGDESK_REFRESH_TOKEN_TTL_DAYS" default:"14"`
}

// RefreshTokenTTL returns the refresh token TTL configured in days.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLDays <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GIGDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GIGDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GIGDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GIGDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GIGDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GIGDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GIGDESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GIGDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GIGDESK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GIGDESK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GIGDESK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type ResetConfig struct {
	TokenTTLMinutes int `envconfig:"GIGDESK_RESET_TOKEN_TTL_MINUTES" default:"30"`
}

// TokenTTL returns the password reset token TTL.
func (r ResetConfig) TokenTTL() time.Duration {
	if r.TokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(r.TokenTTLMinutes) * time.Minute
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"GIGDESK_CRON_INTERVAL" default:"1h"`
	TokenRetentionDays int           `envconfig:"GIGDESK_CRON_TOKEN_RETENTION_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GIGDESK_AUTO_MIGRATE" default:"false"`
}
