package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the service. Only this struct
// must be used to read configuration; no direct access to env or files.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=backoffice_ledger"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`
	MetricsAddr        string        `env:"METRICS_ADDR,default=:9100"`
	MetricsURI         string        `env:"METRICS_URI,default=/metrics"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	PostgresMaxOpenConns int `env:"POSTGRES_MAX_OPEN_CONNS,default=20"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=ledger:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=backoffice"`

	// compound queries fail unless their composite index exists
	QueryStrictIndexes bool `env:"QUERY_STRICT_INDEXES,default=true"`

	InvoiceSaveMaxRetries int           `env:"INVOICE_SAVE_MAX_RETRIES,default=3"`
	InvoiceSaveBaseDelay  time.Duration `env:"INVOICE_SAVE_BASE_DELAY,default=100ms"`
	OrderMaxRetries       int           `env:"ORDER_MAX_RETRIES,default=3"`
	OrderBaseDelay        time.Duration `env:"ORDER_BASE_DELAY,default=5ms"`

	ReconcileQueueName         string        `env:"RECONCILE_QUEUE_NAME,default=reconcile"`
	ReconcileConsumerGroup     string        `env:"RECONCILE_CONSUMER_GROUP,default=reconcilers"`
	ReconcileConsumerName      string        `env:"RECONCILE_CONSUMER_NAME"`
	ReconcileMaxRetries        int           `env:"RECONCILE_MAX_RETRIES,default=5"`
	ReconcileVisibilityTimeout time.Duration `env:"RECONCILE_VISIBILITY_TIMEOUT,default=30s"`
	ReconcilePollInterval      time.Duration `env:"RECONCILE_POLL_INTERVAL,default=1s"`
	ReconcileBatchSize         int64         `env:"RECONCILE_BATCH_SIZE,default=50"`
	ReconcileMaxLen            int64         `env:"RECONCILE_MAX_LEN,default=100000"`
	ReconcileWorkers           int           `env:"RECONCILE_WORKERS,default=8"`
	ReconcileSweepInterval     time.Duration `env:"RECONCILE_SWEEP_INTERVAL,default=1m"`
	ReconcileSweepMinAge       time.Duration `env:"RECONCILE_SWEEP_MIN_AGE,default=2m"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	c := &Config{}
	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Config")
	}

	config = c
	return nil
}

// Set replaces the loaded configuration; used by tests and tools.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
