package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/velora/messaging-services/msggateway/internal/api"
	v1 "github.com/velora/messaging-services/msggateway/internal/api/v1"
	"github.com/velora/messaging-services/msggateway/internal/config"
	middleware "github.com/velora/messaging-services/msggateway/internal/error"
	"github.com/velora/messaging-services/msggateway/internal/repository"
	"github.com/velora/messaging-services/msggateway/internal/service"
	"github.com/velora/messaging-services/msggateway/internal/sink"
	"github.com/velora/messaging-services/msggateway/pkg/cache"
	"github.com/velora/messaging-services/msggateway/pkg/httpclient"
	"github.com/velora/messaging-services/msggateway/pkg/mysql"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,

			NewConnectionDB,
			NewCache,
			NewFiber,
			NewProviderHTTPClient,

			repository.NewTransactionManager,
			repository.NewMessageLogRepository,
			repository.NewCampaignSendLogRepository,
			repository.NewProviderConfigRepository,
			repository.NewProviderSenderRepository,

			NewMessageLogSink,
			NewCampaignLogSink,
			NewMessageLogEnqueuer,
			NewCampaignLogEnqueuer,

			service.NewEnvelopeBuilder,
			service.NewSendValidator,
			service.NewProviderFactory,
			service.NewProviderService,
			NewProviderDirectory,
			service.NewStatusReconciler,
			service.NewSendService,

			v1.NewHandler,
		),
		fx.Invoke(runSinks, startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// runSinks owns the lifetime of the two log pipelines: they start before the
// server accepts work and drain after it stops accepting it.
func runSinks(messageSink *sink.MessageLogSink, campaignSink *sink.CampaignLogSink,
	logger *zap.Logger, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go messageSink.Run(appCtx)
			go campaignSink.Run(appCtx)
			logger.Info("log sinks started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			for _, done := range []<-chan struct{}{messageSink.Done(), campaignSink.Done()} {
				select {
				case <-done:
				case <-ctx.Done():
					logger.Warn("sink drain cut short by shutdown deadline")
					return ctx.Err()
				}
			}
			logger.Info("log sinks drained")
			return nil
		},
	})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	ctx := context.Background()
	return mysql.NewConnection(ctx, cfg.Database, logger)
}

func NewCache(cfg *config.Config) cache.Cache {
	return cache.NewCache(cfg.Redis)
}

func NewFiber() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func NewProviderHTTPClient(cfg *config.Config) httpclient.HTTPClient {
	return httpclient.NewHTTPClient(cfg.Providers.Timeout)
}

func NewMessageLogSink(cfg *config.Config, repo repository.MessageLogRepository,
	logger *zap.Logger) *sink.MessageLogSink {
	return sink.NewMessageLogSink(cfg.Sinks.MessageLog, repo, logger)
}

func NewCampaignLogSink(cfg *config.Config, repo repository.CampaignSendLogRepository,
	parents repository.MessageLogRepository, tx repository.TxManager, logger *zap.Logger) *sink.CampaignLogSink {
	return sink.NewCampaignLogSink(cfg.Sinks.CampaignLog, repo, parents, tx, logger)
}

func NewMessageLogEnqueuer(s *sink.MessageLogSink) service.MessageLogEnqueuer { return s }

func NewCampaignLogEnqueuer(s *sink.CampaignLogSink) service.CampaignLogEnqueuer { return s }

func NewProviderDirectory(senders repository.ProviderSenderRepository, cacheClient cache.Cache,
	cfg *config.Config, logger *zap.Logger) service.ProviderDirectory {
	return service.NewProviderDirectory(senders, cacheClient, cfg.Directory.CacheTTL, logger)
}
