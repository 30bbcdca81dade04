package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	Picking      PickingConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Picking.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STN_APP_ENV" required:"true"`
	Port         string `envconfig:"STN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STN_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"STN_SERVICE_KIND" default:"api"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"STN_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"STN_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"STN_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"STN_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxImportMB     int           `envconfig:"STN_HTTP_MAX_IMPORT_MB" default:"20"`
	CORSOrigins     []string      `envconfig:"STN_HTTP_CORS_ORIGINS"`
}

type DBConfig struct {
	DSN    string `envconfig:"STN_DB_DSN"`
	Driver string `envconfig:"STN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STN_DB_HOST"`
	LegacyPort     int    `envconfig:"STN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STN_DB_USER"`
	LegacyPassword string `envconfig:"STN_DB_PASSWORD"`
	LegacyName     string `envconfig:"STN_DB_NAME"`
	LegacySSLMode  string `envconfig:"STN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STN_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQuery time.Duration `envconfig:"STN_DB_SLOW_QUERY" default:"300ms"`
	TxRetries int           `envconfig:"STN_DB_TX_RETRIES" default:"2"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STN_REDIS_ADDR"`
	Password     string        `envconfig:"STN_REDIS_PASSWORD"`
	DB           int           `envconfig:"STN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PickingConfig tunes pick-list creation and scan handling.
type PickingConfig struct {
	Timezone         string        `envconfig:"STN_PICKING_TIMEZONE" default:"Asia/Kolkata"`
	SequenceTTL      time.Duration `envconfig:"STN_PICKING_SEQUENCE_TTL" default:"48h"`
	CreateRetries    int           `envconfig:"STN_PICKING_CREATE_RETRIES" default:"3"`
	ScanRetries      int           `envconfig:"STN_PICKING_SCAN_RETRIES" default:"3"`
	DefaultListLimit int           `envconfig:"STN_PICKING_DEFAULT_LIST_LIMIT" default:"50"`
	IdempotencyTTL   time.Duration `envconfig:"STN_PICKING_IDEMPOTENCY_TTL" default:"24h"`
}

// Location resolves the configured timezone used for pick-list dates.
func (p PickingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvPickingTimezone, name, err)
	}
	return loc, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STN_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"STN_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ScanEventsTopic       string `envconfig:"STN_PUBSUB_SCAN_EVENTS_TOPIC" default:"stn-scan-events"`
	PickListTopic         string `envconfig:"STN_PUBSUB_PICKLIST_TOPIC" default:"stn-picklist-events"`
	AnalyticsTopic        string `envconfig:"STN_PUBSUB_ANALYTICS_TOPIC" default:"stn-analytics-events"`
	AnalyticsSubscription string `envconfig:"STN_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"stn-analytics-worker"`
	// Provision creates missing topics and the analytics subscription at boot.
	Provision bool `envconfig:"STN_PUBSUB_PROVISION" default:"false"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"STN_BIGQUERY_DATASET" default:"stn_picking"`
	ScanFactsTable     string `envconfig:"STN_BIGQUERY_SCAN_FACTS_TABLE" default:"scan_facts"`
	PickListFactsTable string `envconfig:"STN_BIGQUERY_PICKLIST_FACTS_TABLE" default:"pick_list_facts"`
	BatchSize          int    `envconfig:"STN_BIGQUERY_BATCH_SIZE" default:"1"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"STN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"STN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"STN_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsAddr    string `envconfig:"STN_OUTBOX_METRICS_ADDR" default:":9101"`
}

type CronConfig struct {
	Interval               time.Duration `envconfig:"STN_CRON_INTERVAL" default:"15m"`
	LockTTL                time.Duration `envconfig:"STN_CRON_LOCK_TTL" default:"10m"`
	StalePickListAge       time.Duration `envconfig:"STN_CRON_STALE_PICKLIST_AGE" default:"36h"`
	OutboxRetentionDays    int           `envconfig:"STN_CRON_OUTBOX_RETENTION_DAYS" default:"7"`
	OutboxDLQRetentionDays int           `envconfig:"STN_CRON_OUTBOX_DLQ_RETENTION_DAYS" default:"30"`
	OutboxRetentionEvery   time.Duration `envconfig:"STN_CRON_OUTBOX_RETENTION_EVERY" default:"24h"`
	MetricsAddr            string        `envconfig:"STN_CRON_METRICS_ADDR" default:":9102"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
