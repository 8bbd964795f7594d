// Package bootstrap builds the services every binary shares from config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/cache"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/chris/audio-market-settlement/pkg/notifications"
	"github.com/chris/audio-market-settlement/pkg/scheduler"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/chris/audio-market-settlement/pkg/storage"
	dydbstore "github.com/chris/audio-market-settlement/pkg/storage/dynamodb"
	"github.com/chris/audio-market-settlement/pkg/storage/memory"
	"github.com/chris/audio-market-settlement/pkg/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Services holds the wired dependencies.
type Services struct {
	Config      *config.Config
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	Store       storage.Storage
	Engine      *settlement.Engine
	Distributor *adrevenue.Distributor

	aws     *aws.Config
	closers []func() error
}

// New connects the store, the gateway and the optional cache and
// notification sinks, and builds the engine on top of them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := s.openStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	var walletCache cache.WalletCache = cache.NoOp{}
	sinks := notifications.Multi{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		s.closers = append(s.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		walletCache = cache.NewRedisCache(rdb, cfg.Redis.WalletTTL)
		sinks = append(sinks, notifications.NewRedisNotifier(rdb, cfg.Redis.NotificationPrefix))
		logger.Info("redis wallet cache and notifications enabled", "addr", cfg.Redis.Addr)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		w := notifications.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		s.closers = append(s.closers, w.Close)
		sinks = append(sinks, notifications.NewKafkaNotifier(w))
		logger.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic)
	}
	var notifier notifications.Notifier = notifications.NoOpNotifier{}
	if len(sinks) > 0 {
		notifier = sinks
	}

	gw := gateway.NewClient(cfg.Gateway)
	s.Engine = settlement.NewEngine(store, gw, walletCache, notifier, settlement.NewMetrics(s.Registry), logger)
	s.Distributor = adrevenue.NewDistributor(store, s.Engine, logger)
	s.Distributor.FixedPeriodRevenue = cfg.AdRevenue.FixedPeriodRevenue
	return s, nil
}

func (s *Services) awsConfig(ctx context.Context) (aws.Config, error) {
	if s.aws == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
		}
		s.aws = &cfg
	}
	return *s.aws, nil
}

func (s *Services) openStore(ctx context.Context) (storage.Storage, error) {
	switch s.Config.Storage.Driver {
	case config.DriverDynamoDB:
		awsCfg, err := s.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		t := s.Config.Storage.DynamoDB
		return dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.Tables{
			Transactions:  t.TransactionsTable,
			Wallets:       t.WalletsTable,
			Ledger:        t.LedgerTable,
			NFTs:          t.NFTsTable,
			Distributions: t.DistributionsTable,
			StreamStats:   t.StreamStatsTable,
		}), nil
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, s.Config.Storage.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		if s.Config.Storage.Postgres.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return pg, nil
	case config.DriverMemory:
		s.Logger.Warn("using the in-memory store; balances are lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", s.Config.Storage.Driver)
}

// Scheduler returns the SQS payment event queue, or nil when no queue is
// configured and webhooks should settle inline.
func (s *Services) Scheduler(ctx context.Context) (scheduler.Scheduler, error) {
	if s.Config.Queue.SQSQueueURL == "" {
		return nil, nil
	}
	awsCfg, err := s.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), s.Config.Queue.SQSQueueURL), nil
}

// Close releases connections in reverse order of opening.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
