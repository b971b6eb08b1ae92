// Package config loads process configuration from LENSRETAIL_* environment
// variables. Each binary loads what it needs: the API and cron worker take
// the whole Config, tools take single sections through LoadInto.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

const minProdSecretLen = 32

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Audit         AuditConfig
	Cron          CronConfig
	Editor        EditorConfig
}

// Load reads every section, then applies the cross-field rules envconfig
// cannot express. All rule violations are reported together.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := LoadInto(cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	var errs error
	if c.FeatureFlags.UseSQLite {
		c.DB.Driver = "sqlite"
	}
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		errs = multierr.Append(errs, c.DB.resolveDSN())
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s: unsupported driver %q", EnvDBDriver, c.DB.Driver))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvJWTExpMins))
	}
	if c.App.IsProd() && len(c.JWT.Secret) < minProdSecretLen {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least %d bytes in prod", EnvJWTSecret, minProdSecretLen))
	}
	if c.Pricing.MaxBatchSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvPricingMaxBatch))
	}
	return errs
}

// LoadInto fills a single config section, for tools that do not need the
// full server configuration.
func LoadInto(section any) error {
	if err := envconfig.Process(EnvPrefix, section); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"LENSRETAIL_APP_ENV" required:"true"`
	Port         string `envconfig:"LENSRETAIL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LENSRETAIL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LENSRETAIL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LENSRETAIL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LENSRETAIL_DB_DSN"`
	Driver string `envconfig:"LENSRETAIL_DB_DRIVER" default:"postgres"`

	SQLitePath string `envconfig:"LENSRETAIL_SQLITE_PATH" default:"lensretail.db"`

	// Used only when DSN is empty.
	Host     string `envconfig:"LENSRETAIL_DB_HOST"`
	Port     int    `envconfig:"LENSRETAIL_DB_PORT" default:"5432"`
	User     string `envconfig:"LENSRETAIL_DB_USER"`
	Password string `envconfig:"LENSRETAIL_DB_PASSWORD"`
	Name     string `envconfig:"LENSRETAIL_DB_NAME"`
	SSLMode  string `envconfig:"LENSRETAIL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LENSRETAIL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LENSRETAIL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LENSRETAIL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LENSRETAIL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"LENSRETAIL_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LENSRETAIL_REDIS_URL"`
	Address      string        `envconfig:"LENSRETAIL_REDIS_ADDR"`
	Password     string        `envconfig:"LENSRETAIL_REDIS_PASSWORD"`
	DB           int           `envconfig:"LENSRETAIL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LENSRETAIL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LENSRETAIL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LENSRETAIL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LENSRETAIL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LENSRETAIL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LENSRETAIL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LENSRETAIL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LENSRETAIL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LENSRETAIL_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL is zero when refresh tokens are disabled.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(max(j.RefreshTokenTTLMinutes, 0)) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LENSRETAIL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LENSRETAIL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LENSRETAIL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LENSRETAIL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LENSRETAIL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LENSRETAIL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LENSRETAIL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LENSRETAIL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LENSRETAIL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LENSRETAIL_AUTO_MIGRATE" default:"false"`
}

type PricingConfig struct {
	HierarchyCacheTTL time.Duration `envconfig:"LENSRETAIL_PRICING_HIERARCHY_CACHE_TTL" default:"60s"`
	MaxBatchSize      int           `envconfig:"LENSRETAIL_PRICING_MAX_BATCH_SIZE" default:"5000"`
}

type AuditConfig struct {
	RetentionDays         int `envconfig:"LENSRETAIL_AUDIT_RETENTION_DAYS" default:"180"`
	ErrorLogRetentionDays int `envconfig:"LENSRETAIL_ERROR_LOG_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LENSRETAIL_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"LENSRETAIL_CRON_LOCK_TTL" default:"1h"`
}

// EditorConfig points the discount editor CLI at a running API.
type EditorConfig struct {
	BaseURL string        `envconfig:"LENSRETAIL_EDITOR_API_URL" default:"http://localhost:8080"`
	Timeout time.Duration `envconfig:"LENSRETAIL_EDITOR_TIMEOUT" default:"15s"`
	Token   string        `envconfig:"LENSRETAIL_EDITOR_TOKEN"`
}

// resolveDSN assembles a postgres URL from the individual connection
// settings when no DSN was given.
func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}
	var missing []string
	for _, part := range []struct{ env, value string }{
		{EnvDBHost, db.Host},
		{EnvDBUser, db.User},
		{EnvDBName, db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("set %s, or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   "/" + db.Name,
	}
	if db.Password != "" {
		dsn.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
