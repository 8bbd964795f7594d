// Package config loads service configuration from an optional YAML file,
// a .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Queue     QueueConfig     `yaml:"queue"`
	Gateway   gateway.Config  `yaml:"gateway"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	JWT       JWTConfig       `yaml:"jwt"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	AdRevenue AdRevenueConfig `yaml:"ad_revenue"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type DynamoDBConfig struct {
	TransactionsTable  string `yaml:"transactions_table"`
	WalletsTable       string `yaml:"wallets_table"`
	LedgerTable        string `yaml:"ledger_table"`
	NFTsTable          string `yaml:"nfts_table"`
	DistributionsTable string `yaml:"distributions_table"`
	StreamStatsTable   string `yaml:"stream_stats_table"`
}

type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type QueueConfig struct {
	SQSQueueURL string `yaml:"sqs_queue_url"`
}

// RedisConfig enables the wallet cache and pub/sub notifications when Addr is set.
type RedisConfig struct {
	Addr               string        `yaml:"addr"`
	Password           string        `yaml:"password"`
	DB                 int           `yaml:"db"`
	WalletTTL          time.Duration `yaml:"wallet_ttl"`
	NotificationPrefix string        `yaml:"notification_prefix"`
}

// KafkaConfig enables the notification topic when Brokers is set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	AdminRole string `yaml:"admin_role"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type ReconcileConfig struct {
	Schedule   string        `yaml:"schedule"`
	StaleAfter time.Duration `yaml:"stale_after"`
	FailAfter  time.Duration `yaml:"fail_after"`
}

type AdRevenueConfig struct {
	Schedule string `yaml:"schedule"`
	// FixedPeriodRevenue replaces the revenue summed from stream stats when positive.
	FixedPeriodRevenue int64 `yaml:"fixed_period_revenue"`
}

// Load reads path (if non-empty), then .env, then the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() error {
	str := map[string]*string{
		"HTTP_PORT":                         &c.Server.Port,
		"LOG_LEVEL":                         &c.Log.Level,
		"LOG_FORMAT":                        &c.Log.Format,
		"STORAGE_DRIVER":                    &c.Storage.Driver,
		"DYNAMODB_TRANSACTIONS_TABLE_NAME":  &c.Storage.DynamoDB.TransactionsTable,
		"DYNAMODB_WALLETS_TABLE_NAME":       &c.Storage.DynamoDB.WalletsTable,
		"DYNAMODB_LEDGER_TABLE_NAME":        &c.Storage.DynamoDB.LedgerTable,
		"DYNAMODB_NFTS_TABLE_NAME":          &c.Storage.DynamoDB.NFTsTable,
		"DYNAMODB_DISTRIBUTIONS_TABLE_NAME": &c.Storage.DynamoDB.DistributionsTable,
		"DYNAMODB_STREAM_STATS_TABLE_NAME":  &c.Storage.DynamoDB.StreamStatsTable,
		"DATABASE_URL":                      &c.Storage.Postgres.DSN,
		"SQS_QUEUE_URL":                     &c.Queue.SQSQueueURL,
		"GATEWAY_BASE_URL":                  &c.Gateway.BaseURL,
		"GATEWAY_API_KEY":                   &c.Gateway.APIKey,
		"REDIS_ADDR":                        &c.Redis.Addr,
		"REDIS_PASSWORD":                    &c.Redis.Password,
		"KAFKA_TOPIC":                       &c.Kafka.Topic,
		"JWT_SECRET":                        &c.JWT.Secret,
		"WEBHOOK_SECRET":                    &c.Webhook.Secret,
		"RECONCILE_SCHEDULE":                &c.Reconcile.Schedule,
		"AD_REVENUE_SCHEDULE":               &c.AdRevenue.Schedule,
	}
	for key, dst := range str {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = strings.Split(val, ",")
	}

	var errs []error
	if val := os.Getenv("REDIS_DB"); val != "" {
		n, err := strconv.Atoi(val)
		errs = append(errs, envError("REDIS_DB", err))
		c.Redis.DB = n
	}
	if val := os.Getenv("AD_REVENUE_FIXED_PERIOD_REVENUE"); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		errs = append(errs, envError("AD_REVENUE_FIXED_PERIOD_REVENUE", err))
		c.AdRevenue.FixedPeriodRevenue = n
	}
	for key, dst := range map[string]*time.Duration{
		"GATEWAY_TIMEOUT":       &c.Gateway.Timeout,
		"REDIS_WALLET_TTL":      &c.Redis.WalletTTL,
		"RECONCILE_STALE_AFTER": &c.Reconcile.StaleAfter,
		"RECONCILE_FAIL_AFTER":  &c.Reconcile.FailAfter,
	} {
		if val := os.Getenv(key); val != "" {
			d, err := time.ParseDuration(val)
			errs = append(errs, envError(key, err))
			*dst = d
		}
	}
	return errors.Join(errs...)
}

func envError(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s: %w", key, err)
}

// Validate fills defaults and checks that the selected backends are configured.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverDynamoDB
	}
	if c.Redis.WalletTTL == 0 {
		c.Redis.WalletTTL = 5 * time.Minute
	}
	if c.Redis.NotificationPrefix == "" {
		c.Redis.NotificationPrefix = "notifications:"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "settlement-notifications"
	}
	if c.JWT.AdminRole == "" {
		c.JWT.AdminRole = "admin"
	}
	if c.Reconcile.Schedule == "" {
		c.Reconcile.Schedule = "0 */10 * * * *" // every 10 minutes
	}
	if c.Reconcile.StaleAfter == 0 {
		c.Reconcile.StaleAfter = 20 * time.Minute
	}
	if c.Reconcile.FailAfter == 0 {
		c.Reconcile.FailAfter = 24 * time.Hour
	}
	if c.AdRevenue.Schedule == "" {
		c.AdRevenue.Schedule = "0 0 1 1,16 * *" // 01:00 UTC on the 1st and 16th
	}

	switch c.Storage.Driver {
	case DriverDynamoDB:
		t := c.Storage.DynamoDB
		if t.TransactionsTable == "" || t.WalletsTable == "" || t.LedgerTable == "" ||
			t.NFTsTable == "" || t.DistributionsTable == "" || t.StreamStatsTable == "" {
			return errors.New("one or more DynamoDB table names are not set")
		}
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			return errors.New("postgres dsn is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Reconcile.FailAfter < c.Reconcile.StaleAfter {
		return fmt.Errorf("reconcile fail_after (%s) must not be shorter than stale_after (%s)", c.Reconcile.FailAfter, c.Reconcile.StaleAfter)
	}
	if c.AdRevenue.FixedPeriodRevenue < 0 {
		return errors.New("ad_revenue fixed_period_revenue must not be negative")
	}
	return nil
}
