package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Sweeper       SweeperConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.TaxPercent(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HAULER_APP_ENV" required:"true"`
	Port         string   `envconfig:"HAULER_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HAULER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HAULER_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HAULER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"HAULER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HAULER_DB_DSN"`
	Driver string `envconfig:"HAULER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HAULER_DB_HOST"`
	LegacyPort     int    `envconfig:"HAULER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HAULER_DB_USER"`
	LegacyPassword string `envconfig:"HAULER_DB_PASSWORD"`
	LegacyName     string `envconfig:"HAULER_DB_NAME"`
	LegacySSLMode  string `envconfig:"HAULER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAULER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAULER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAULER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAULER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"HAULER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAULER_REDIS_ADDR"`
	Password     string        `envconfig:"HAULER_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAULER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAULER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAULER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAULER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAULER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAULER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HAULER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HAULER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HAULER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HAULER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HAULER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HAULER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HAULER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HAULER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HAULER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HAULER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"HAULER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"HAULER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HAULER_AUTO_MIGRATE" default:"false"`
}

// CartConfig controls how long a session cart survives in the key-value store.
type CartConfig struct {
	TTL time.Duration `envconfig:"HAULER_CART_TTL" default:"720h"`
}

type CheckoutConfig struct {
	DisplayTaxPercent string        `envconfig:"HAULER_CHECKOUT_DISPLAY_TAX_PERCENT" default:"0"`
	IdempotencyTTL    time.Duration `envconfig:"HAULER_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

// TaxPercent parses the display-only tax percentage.
func (c CheckoutConfig) TaxPercent() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.DisplayTaxPercent)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCheckoutTaxPercent, err)
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 100", EnvCheckoutTaxPercent)
	}
	return value, nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"HAULER_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HAULER_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HAULER_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"HAULER_PUBSUB_ORDERS_TOPIC" default:"hauler-order-events"`
	OrdersSubscription string `envconfig:"HAULER_PUBSUB_ORDERS_SUBSCRIPTION" default:"hauler-order-notifications"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"HAULER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"HAULER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"HAULER_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsAddr    string `envconfig:"HAULER_OUTBOX_METRICS_ADDR" default:":9091"`
}

type SweeperConfig struct {
	Interval              time.Duration `envconfig:"HAULER_SWEEPER_INTERVAL" default:"24h"`
	NotificationRetention time.Duration `envconfig:"HAULER_SWEEPER_NOTIFICATION_RETENTION" default:"720h"`
	OutboxRetention       time.Duration `envconfig:"HAULER_SWEEPER_OUTBOX_RETENTION" default:"168h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
