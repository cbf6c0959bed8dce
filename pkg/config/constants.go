package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without a tag.
const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "STOCKROOM_APP_ENV"
	EnvPort     = "STOCKROOM_APP_PORT"
	EnvDBDSN    = "STOCKROOM_DB_DSN"
	EnvDBHost   = "STOCKROOM_DB_HOST"
	EnvDBUser   = "STOCKROOM_DB_USER"
	EnvDBName   = "STOCKROOM_DB_NAME"
	EnvRedisURL = "STOCKROOM_REDIS_URL"

	EnvGCPProjectID          = "STOCKROOM_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic     = "STOCKROOM_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub       = "STOCKROOM_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvInventoryBaseURL      = "STOCKROOM_INVENTORY_BASE_URL"
	EnvInventoryCallTimeout  = "STOCKROOM_INVENTORY_CALL_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
