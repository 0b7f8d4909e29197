package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Session      SessionConfig
	Catalog      CatalogConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Artwork      ArtworkConfig
	ImageGen     ImageGenConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TEEFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"TEEFORGE_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"TEEFORGE_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"TEEFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEEFORGE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"TEEFORGE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"TEEFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TEEFORGE_DB_DSN"`
	Driver string `envconfig:"TEEFORGE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TEEFORGE_DB_HOST"`
	Port     int    `envconfig:"TEEFORGE_DB_PORT" default:"5432"`
	User     string `envconfig:"TEEFORGE_DB_USER"`
	Password string `envconfig:"TEEFORGE_DB_PASSWORD"`
	Name     string `envconfig:"TEEFORGE_DB_NAME"`
	SSLMode  string `envconfig:"TEEFORGE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"TEEFORGE_SQLITE_PATH" default:"teeforge.db"`

	MaxOpenConns       int           `envconfig:"TEEFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns       int           `envconfig:"TEEFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime    time.Duration `envconfig:"TEEFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime    time.Duration `envconfig:"TEEFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQueryThreshold time.Duration `envconfig:"TEEFORGE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TEEFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TEEFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"TEEFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEEFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEEFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEEFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEEFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEEFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEEFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies bearer tokens minted by the account service. Only
// verification happens here; the storefront never issues tokens.
type JWTConfig struct {
	Secret string `envconfig:"TEEFORGE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TEEFORGE_JWT_ISSUER" default:"teeforge"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TEEFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TEEFORGE_AUTO_MIGRATE" default:"false"`
	Vectorize   bool `envconfig:"TEEFORGE_FEATURE_VECTORIZE" default:"false"`
}

type SessionConfig struct {
	TTL           time.Duration `envconfig:"TEEFORGE_SESSION_TTL" default:"168h"`
	DraftDebounce time.Duration `envconfig:"TEEFORGE_DRAFT_DEBOUNCE" default:"2s"`
}

// PricingConfig holds the catalog-wide pricing knobs. Money values are
// decimal strings so they can be parsed without float drift.
type PricingConfig struct {
	DepositRatio    string `envconfig:"TEEFORGE_PRICING_DEPOSIT_RATIO" default:"0.50"`
	MinimumCharge   string `envconfig:"TEEFORGE_PRICING_MINIMUM_CHARGE" default:"0.50"`
	ScreenFee       string `envconfig:"TEEFORGE_PRICING_SCREEN_FEE" default:"25.00"`
	GarmentMarkup   string `envconfig:"TEEFORGE_PRICING_GARMENT_MARKUP" default:"1.00"`
	MinimumQuantity int    `envconfig:"TEEFORGE_PRICING_MINIMUM_QUANTITY" default:"24"`
	Currency        string `envconfig:"TEEFORGE_PRICING_CURRENCY" default:"usd"`
}

func (p PricingConfig) validate() error {
	if p.MinimumQuantity <= 0 {
		return fmt.Errorf("%s must be positive", EnvMinimumQuantity)
	}
	if strings.TrimSpace(p.DepositRatio) == "" {
		return fmt.Errorf("%s is required", EnvDepositRatio)
	}
	return nil
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"TEEFORGE_CATALOG_CACHE_TTL" default:"5m"`
}

type CheckoutConfig struct {
	SubmitGuardTTL  time.Duration `envconfig:"TEEFORGE_CHECKOUT_SUBMIT_GUARD_TTL" default:"2m"`
	PendingOrderTTL time.Duration `envconfig:"TEEFORGE_CHECKOUT_PENDING_ORDER_TTL" default:"48h"`
	IdempotencyTTL  time.Duration `envconfig:"TEEFORGE_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type ArtworkConfig struct {
	MaxUploadMB      int    `envconfig:"TEEFORGE_ARTWORK_MAX_UPLOAD_MB" default:"25"`
	TempPrefix       string `envconfig:"TEEFORGE_ARTWORK_TEMP_PREFIX" default:"artwork/temp"`
	MockupPrefix     string `envconfig:"TEEFORGE_ARTWORK_MOCKUP_PREFIX" default:"campaigns/mockups"`
	MockupMaxWidth   int    `envconfig:"TEEFORGE_ARTWORK_MOCKUP_MAX_WIDTH" default:"1200"`
	MockupMaxHeight  int    `envconfig:"TEEFORGE_ARTWORK_MOCKUP_MAX_HEIGHT" default:"1200"`
	TempRetentionHrs int    `envconfig:"TEEFORGE_ARTWORK_TEMP_RETENTION_HOURS" default:"168"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (a ArtworkConfig) MaxUploadBytes() int64 {
	if a.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(a.MaxUploadMB) << 20
}

type ImageGenConfig struct {
	BaseURL         string        `envconfig:"TEEFORGE_IMAGEGEN_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey          string        `envconfig:"TEEFORGE_IMAGEGEN_API_KEY"`
	Model           string        `envconfig:"TEEFORGE_IMAGEGEN_MODEL" default:"gpt-image-1"`
	BackgroundURL   string        `envconfig:"TEEFORGE_IMAGEGEN_BACKGROUND_URL"`
	VectorizeURL    string        `envconfig:"TEEFORGE_IMAGEGEN_VECTORIZE_URL"`
	Timeout         time.Duration `envconfig:"TEEFORGE_IMAGEGEN_TIMEOUT" default:"90s"`
	RateLimit       int           `envconfig:"TEEFORGE_IMAGEGEN_RATE_LIMIT" default:"5"`
	RateLimitWindow time.Duration `envconfig:"TEEFORGE_IMAGEGEN_RATE_WINDOW" default:"1m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TEEFORGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TEEFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TEEFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"TEEFORGE_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"TEEFORGE_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"TEEFORGE_PUBSUB_ORDERS_TOPIC" default:"tf-order-events"`
	CampaignsTopic string `envconfig:"TEEFORGE_PUBSUB_CAMPAIGNS_TOPIC" default:"tf-campaign-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TEEFORGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TEEFORGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TEEFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"TEEFORGE_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TEEFORGE_CRON_INTERVAL" default:"1h"`
	LockKey  string        `envconfig:"TEEFORGE_CRON_LOCK_KEY" default:"cron:lock"`
	LockTTL  time.Duration `envconfig:"TEEFORGE_CRON_LOCK_TTL" default:"55m"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TEEFORGE_STRIPE_API_KEY"`
	Secret string `envconfig:"TEEFORGE_STRIPE_SECRET"`
	Env    string `envconfig:"TEEFORGE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" || sqlite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
