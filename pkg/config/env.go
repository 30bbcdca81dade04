package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "STN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STN_APP_ENV"
	EnvPort     = "STN_APP_PORT"
	EnvLogLevel = "STN_LOG_LEVEL"

	EnvDBDSN  = "STN_DB_DSN"
	EnvDBHost = "STN_DB_HOST"
	EnvDBUser = "STN_DB_USER"
	EnvDBName = "STN_DB_NAME"

	EnvRedisURL = "STN_REDIS_URL"

	EnvPickingTimezone = "STN_PICKING_TIMEZONE"
	EnvAutoMigrate     = "STN_AUTO_MIGRATE"

	EnvGCPProjectID          = "STN_GCP_PROJECT_ID"
	EnvPubSubScanTopic       = "STN_PUBSUB_SCAN_EVENTS_TOPIC"
	EnvPubSubPickListTopic   = "STN_PUBSUB_PICKLIST_TOPIC"
	EnvPubSubAnalyticsTopic  = "STN_PUBSUB_ANALYTICS_TOPIC"
	EnvPubSubAnalyticsSub    = "STN_PUBSUB_ANALYTICS_SUBSCRIPTION"
	EnvBigQueryScanFactTable = "STN_BIGQUERY_SCAN_FACTS_TABLE"
	EnvBigQueryPickListTable = "STN_BIGQUERY_PICKLIST_FACTS_TABLE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
