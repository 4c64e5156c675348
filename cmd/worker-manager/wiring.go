// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	commonaws "availability-notifier/internal/common/aws"
	"availability-notifier/internal/common/config"
	"availability-notifier/internal/common/database"
	commonhttp "availability-notifier/internal/common/http"
	"availability-notifier/internal/common/logger"
	"availability-notifier/internal/notify"
	"availability-notifier/internal/report"
	"availability-notifier/internal/sender"
	"availability-notifier/internal/source"
	"availability-notifier/internal/store"
	"availability-notifier/pkg/registry"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
)

type dependencies struct {
	store    store.Store
	source   source.Source
	sender   sender.Sender
	reporter notify.Reporter
	closers  []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*dependencies, error) {
	deps := &dependencies{reporter: report.NopReporter{}}

	awsCfg, err := commonaws.LoadConfig(ctx, cfg.Messaging.AWSRegion)
	if err != nil {
		return nil, err
	}

	if deps.store, err = buildStore(ctx, cfg, awsCfg, deps, zapLog); err != nil {
		deps.Close()
		return nil, err
	}
	if deps.source, err = buildSource(cfg, awsCfg); err != nil {
		deps.Close()
		return nil, err
	}
	deps.sender = buildSender(cfg, awsCfg)

	if cfg.Reporting.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.reporter = report.NewElasticsearchReporter(es.Client, cfg.Reporting.Index, log)
		zapLog.Info("Run reports go to Elasticsearch", zap.String("index", cfg.Reporting.Index))
	}

	return deps, nil
}

func buildStore(ctx context.Context, cfg *config.Config, awsCfg awssdk.Config, deps *dependencies, zapLog *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)

		s := store.NewPostgresStore(pg.DB, cfg.Database.Postgres.Table)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		zapLog.Info("PostgreSQL subscription store ready")
		return s, nil

	case "redis":
		var rc *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, rc.Close)
		zapLog.Info("Redis subscription store ready")
		return store.NewRedisStore(rc.Client, cfg.Database.Redis.KeyPrefix), nil

	case "dynamodb":
		zapLog.Info("DynamoDB subscription store ready", zap.String("table", cfg.Database.DynamoDB.Table))
		return store.NewDynamoStore(commonaws.NewDynamoDBClient(awsCfg), cfg.Database.DynamoDB.Table), nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

func buildSource(cfg *config.Config, awsCfg awssdk.Config) (source.Source, error) {
	switch cfg.Source.Backend {
	case "s3":
		return source.NewS3Source(commonaws.NewS3Client(awsCfg), cfg.Source.Bucket), nil
	case "http":
		client := commonhttp.NewClient(config.GetDuration(cfg.Source.Timeout))
		return source.NewHTTPSource(client, cfg.Source.BaseURL), nil
	}
	return nil, fmt.Errorf("unsupported source backend %q", cfg.Source.Backend)
}

func buildSender(cfg *config.Config, awsCfg awssdk.Config) sender.Sender {
	var sms sender.Sender
	if cfg.Messaging.Channel == "sns" {
		sms = sender.NewSNSSender(commonaws.NewSNSClient(awsCfg), cfg.Messaging.SenderID)
	} else {
		sms = sender.NewPinpointSender(
			commonaws.NewPinpointClient(awsCfg),
			cfg.Messaging.ApplicationID,
			cfg.Messaging.OriginationNumber,
			cfg.Messaging.SenderID,
		)
	}

	if !cfg.Messaging.EmailEnabled {
		return sms
	}
	return sender.NewRouter(sms, sender.NewSESSender(commonaws.NewSESClient(awsCfg), cfg.Messaging.FromEmail))
}

func loadTemplates(cfg *config.Config) (*notify.Templates, error) {
	path := cfg.Templates.RegistryPath
	if path == "" {
		return notify.NewTemplates(cfg.Templates.DefaultLanguage, nil), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template registry %s: %w", path, err)
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return notify.NewTemplates(cfg.Templates.DefaultLanguage, reg), nil
}
