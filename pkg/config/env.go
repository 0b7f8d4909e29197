package config

// envconfig resolves the explicit tag names, so the prefix only matters for
// fields without an envconfig tag.
const EnvPrefix = "TEEFORGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv          = "TEEFORGE_APP_ENV"
	EnvPort            = "TEEFORGE_APP_PORT"
	EnvDBDSN           = "TEEFORGE_DB_DSN"
	EnvDBHost          = "TEEFORGE_DB_HOST"
	EnvDBUser          = "TEEFORGE_DB_USER"
	EnvDBName          = "TEEFORGE_DB_NAME"
	EnvRedisURL        = "TEEFORGE_REDIS_URL"
	EnvJWTSecret       = "TEEFORGE_JWT_SECRET"
	EnvGCSBucket       = "TEEFORGE_GCS_BUCKET_NAME"
	EnvUseSQLite       = "TEEFORGE_USE_SQLITE"
	EnvDepositRatio    = "TEEFORGE_PRICING_DEPOSIT_RATIO"
	EnvMinimumQuantity = "TEEFORGE_PRICING_MINIMUM_QUANTITY"
	EnvSessionTTL      = "TEEFORGE_SESSION_TTL"
	EnvDraftDebounce   = "TEEFORGE_DRAFT_DEBOUNCE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
