package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/akinalp/leasehub/config"
	"github.com/akinalp/leasehub/pkg/cache"
	"github.com/akinalp/leasehub/pkg/email"
	"github.com/akinalp/leasehub/pkg/eventbus"
	"github.com/akinalp/leasehub/pkg/storage"
)

const uploadsPrefix = "/api/uploads/"

// Infra holds the pluggable backends selected by configuration.
type Infra struct {
	Cache     cache.Store
	Publisher eventbus.Publisher
	Storage   storage.Store
	// Uploads serves disk-stored attachments; nil for minio.
	Uploads http.Handler
	// Email is nil when notifications are not configured.
	Email    email.EmailSender
	CacheTTL time.Duration
}

// initInfra connects the cache, the event stream, attachment storage and
// the email sender. Returned errors are fatal at startup.
func initInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second}

	switch cfg.Cache.Driver {
	case "redis":
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		infra.Cache = store
	default:
		infra.Cache = cache.NewMemoryStore(infra.CacheTTL)
	}
	logger.Info("cache ready", "driver", cfg.Cache.Driver)

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			infra.Cache.Close()
			return nil, fmt.Errorf("failed to connect kafka: %w", err)
		}
		infra.Publisher = pub
		logger.Info("event stream ready", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		infra.Publisher = eventbus.NoopPublisher{}
		logger.Info("event stream disabled")
	}

	switch cfg.Storage.Driver {
	case "minio":
		store, err := storage.NewMinioStore(storage.MinioOptions{
			Endpoint:      cfg.Storage.MinioEndpoint,
			AccessKey:     cfg.Storage.MinioAccessKey,
			SecretKey:     cfg.Storage.MinioSecretKey,
			Bucket:        cfg.Storage.MinioBucket,
			UseSSL:        cfg.Storage.MinioUseSSL,
			PublicBaseURL: cfg.Storage.MinioPublicURL,
		}, logger)
		if err != nil {
			infra.close(logger)
			return nil, err
		}
		infra.Storage = store
	default:
		store, err := storage.NewDiskStore(cfg.Storage.Dir, uploadsPrefix)
		if err != nil {
			infra.close(logger)
			return nil, err
		}
		infra.Storage = store
		infra.Uploads = store.Handler()
	}
	logger.Info("attachment storage ready", "driver", cfg.Storage.Driver)

	if cfg.Email.Enabled() {
		infra.Email = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		logger.Info("email notifications enabled")
	} else {
		logger.Info("email notifications disabled")
	}

	return infra, nil
}

func (i *Infra) close(logger *slog.Logger) {
	if i.Publisher != nil {
		if err := i.Publisher.Close(); err != nil {
			logger.Warn("event stream close failed", "error", err)
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			logger.Warn("cache close failed", "error", err)
		}
	}
}
