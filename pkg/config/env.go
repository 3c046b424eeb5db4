package config

const EnvPrefix = "HAULER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:hauler.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv                 = "HAULER_APP_ENV"
	EnvPort                   = "HAULER_APP_PORT"
	EnvLogLevel               = "HAULER_LOG_LEVEL"
	EnvDBDSN                  = "HAULER_DB_DSN"
	EnvDBDriver               = "HAULER_DB_DRIVER"
	EnvDBHost                 = "HAULER_DB_HOST"
	EnvDBUser                 = "HAULER_DB_USER"
	EnvDBName                 = "HAULER_DB_NAME"
	EnvRedisURL               = "HAULER_REDIS_URL"
	EnvJWTSecret              = "HAULER_JWT_SECRET"
	EnvJWTIssuer              = "HAULER_JWT_ISSUER"
	EnvJWTExpMins             = "HAULER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "HAULER_REFRESH_TOKEN_TTL_MINUTES"
	EnvCartTTL                = "HAULER_CART_TTL"
	EnvCheckoutTaxPercent     = "HAULER_CHECKOUT_DISPLAY_TAX_PERCENT"
	EnvGCPProjectID           = "HAULER_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic      = "HAULER_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub        = "HAULER_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
