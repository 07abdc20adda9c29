package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/render"
	"github.com/recruitly/template-service/internal/core/service"
	"github.com/recruitly/template-service/internal/infrastructure/cache/memory"
	"github.com/recruitly/template-service/internal/infrastructure/config"
	mongodb "github.com/recruitly/template-service/internal/infrastructure/db/mongo"
	redisdb "github.com/recruitly/template-service/internal/infrastructure/db/redis"
	"github.com/recruitly/template-service/internal/infrastructure/mail"
	"github.com/recruitly/template-service/pkg/logger"
)

// app holds the connected stores and the services built on top of them.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	mongo *mongo.Client
	redis *redis.Client // nil unless CACHE_DRIVER=redis

	templateRepo *mongodb.TemplateRepository
	operatorRepo *mongodb.OperatorRepository
	replays      ports.SendReplayStore

	templates *service.TemplateService
	messages  ports.MessageService
	auth      *service.AuthService
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, mongo: client}

	a.templateRepo = mongodb.NewTemplateRepository(db, logger.Component("template_repository"))
	txn, err := mongodb.SupportsTransactions(ctx, client)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("could not detect mongo topology")
	case !txn:
		log.Warn().Msg("mongo is standalone, default switches run as ordered writes")
		a.templateRepo.DisableTransactions()
	}
	a.operatorRepo = mongodb.NewOperatorRepository(db)
	if err := a.templateRepo.EnsureIndexes(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("template indexes: %w", err)
	}
	if err := a.operatorRepo.EnsureIndexes(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("operator indexes: %w", err)
	}

	var cache ports.TemplateCache
	switch cfg.Cache.Driver {
	case "redis":
		a.redis, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		cache = redisdb.NewTemplateCache(a.redis, cfg.Cache.TTL)
		a.replays = redisdb.NewSendReplayStore(a.redis, cfg.Cache.IdempotencyTTL)
	case "memory":
		cache = memory.NewTemplateCache(cfg.Cache.TTL)
		a.replays = memory.NewSendReplayStore(cfg.Cache.IdempotencyTTL)
	default:
		a.replays = memory.NewSendReplayStore(cfg.Cache.IdempotencyTTL)
	}
	log.Info().Str("driver", cfg.Cache.Driver).Msg("template cache configured")

	transport, err := mail.New(mail.Config{
		Driver:         cfg.Mail.Driver,
		From:           cfg.Mail.From,
		FromName:       cfg.Mail.FromName,
		SMTPHost:       cfg.Mail.SMTPHost,
		SMTPPort:       cfg.Mail.SMTPPort,
		SMTPUser:       cfg.Mail.SMTPUser,
		SMTPPass:       cfg.Mail.SMTPPass,
		SMTPTLSMode:    cfg.Mail.SMTPTLSMode,
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
	}, logger.Component("mail"))
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	svcLog := logger.Component("service")
	selector := service.NewSelector(a.templateRepo, cache, svcLog)
	enforcer := service.NewDefaultEnforcer(a.templateRepo, svcLog)
	a.templates = service.NewTemplateService(a.templateRepo, selector, enforcer, svcLog)
	a.messages = service.NewMessageService(
		a.templateRepo,
		selector,
		service.NewUsageTracker(a.templateRepo),
		transport,
		render.Options{EscapeHTML: cfg.Render.EscapeHTML},
		svcLog,
	)
	a.auth = service.NewAuthService(a.operatorRepo, cfg.JWTSecret, cfg.TokenTTL)

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}

func (a *app) seed(ctx context.Context) error {
	report, err := a.templates.SeedDefaults(ctx, a.cfg.SeedActor)
	if err != nil {
		return err
	}
	a.log.Info().
		Int("created", len(report.Created)).
		Int("skipped", len(report.Skipped)).
		Msg("built-in templates seeded")
	return nil
}
