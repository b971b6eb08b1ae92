package config

const (
	EnvPrefix = "LENSRETAIL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Variable names referenced by validation messages and tests.
const (
	EnvAppEnv                 = "LENSRETAIL_APP_ENV"
	EnvPort                   = "LENSRETAIL_APP_PORT"
	EnvDBDriver               = "LENSRETAIL_DB_DRIVER"
	EnvDBDSN                  = "LENSRETAIL_DB_DSN"
	EnvDBHost                 = "LENSRETAIL_DB_HOST"
	EnvDBUser                 = "LENSRETAIL_DB_USER"
	EnvDBName                 = "LENSRETAIL_DB_NAME"
	EnvDBPassword             = "LENSRETAIL_DB_PASSWORD"
	EnvRedisURL               = "LENSRETAIL_REDIS_URL"
	EnvJWTSecret              = "LENSRETAIL_JWT_SECRET"
	EnvJWTIssuer              = "LENSRETAIL_JWT_ISSUER"
	EnvJWTExpMins             = "LENSRETAIL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LENSRETAIL_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "LENSRETAIL_USE_SQLITE"
	EnvPricingMaxBatch        = "LENSRETAIL_PRICING_MAX_BATCH_SIZE"
)
