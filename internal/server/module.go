package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kestrel-data/docreader/internal/clients/doc2x"
	"github.com/kestrel-data/docreader/internal/clients/markitdown"
	"github.com/kestrel-data/docreader/internal/config"
	"github.com/kestrel-data/docreader/internal/ingest"
	"github.com/kestrel-data/docreader/internal/logger"
	"github.com/kestrel-data/docreader/internal/middleware"
	"github.com/kestrel-data/docreader/internal/ocr"
	"github.com/kestrel-data/docreader/internal/parser/formats"
	"github.com/kestrel-data/docreader/internal/redis"
	"github.com/kestrel-data/docreader/internal/storage"
	"github.com/kestrel-data/docreader/internal/vlm"
)

// Module is the complete fx composition for the service: configuration and
// logging, every external collaborator, the ingestion core, and the HTTP
// edge, wired in one tree and started by StartHTTPServer.
var Module = fx.Options(
	InfrastructureModule,
	ClientsModule,
	CoreModule,
	HTTPServerModule,
	fx.Invoke(StartHTTPServer),
)

// InfrastructureModule provides configuration, logging, and the response
// cache's Redis connection.
var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		NewAppConfig,
		NewAppLogger,
		NewRedisConnection,
		NewCacheService,
	),
)

// ClientsModule provides the collaborators parsers and the ingestion core
// call out to: object storage, OCR, VLM captioning, and the Doc2X/Markitdown
// document converters.
var ClientsModule = fx.Module("clients",
	fx.Provide(
		NewObjectStorage,
		NewOCREngine,
		NewVLMClient,
		NewDoc2XClient,
		NewMarkitdownClient,
	),
)

// CoreModule provides the parser dispatcher and the ingestion orchestrator
// built on top of it.
var CoreModule = fx.Module("core",
	fx.Provide(
		NewDispatcher,
		NewIngestService,
	),
)

// HTTPServerModule provides the routed handler and the *http.Server wrapping
// it, served h2c-style over plain net/http.
var HTTPServerModule = fx.Module("http_server",
	fx.Provide(
		NewHandler,
		NewHTTPServer,
	),
)

// NewAppConfig loads configuration from the working directory.
func NewAppConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewAppLogger initializes the process-wide zap logger singleton and hands
// the handle to fx for injection everywhere else.
func NewAppLogger(lifecycle fx.Lifecycle) (*zap.Logger, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Sync()
			return nil
		},
	})
	return log, nil
}

// NewRedisConnection constructs the rueidis-backed client behind the
// response cache.
func NewRedisConnection(cfg *config.Config) (*redis.Client, error) {
	client, err := redis.NewClientFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return client, nil
}

// NewCacheService wraps the Redis client as the PDF extractors' response
// cache.
func NewCacheService(client *redis.Client) *redis.CacheService {
	return redis.NewCacheService(client)
}

// NewObjectStorage selects and constructs the configured object-store
// provider.
func NewObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	return storage.New(storage.Config{
		Provider:        storage.Provider(cfg.Storage.Provider),
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		BucketName:      cfg.Storage.BucketName,
		UseSSL:          cfg.Storage.UseSSL,
		Region:          cfg.Storage.Region,
		PublicURL:       cfg.Storage.PublicURL,
		LocalDir:        cfg.Storage.LocalDir,
	})
}

// NewOCREngine constructs the process-wide OCR backend selected by
// OCR_BACKEND.
func NewOCREngine(cfg *config.Config) ocr.OCR {
	return ocr.New(ocr.Config{
		Backend:  ocr.Backend(cfg.OCR.Backend),
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
	})
}

// NewVLMClient constructs the captioning backend selected by
// vlm.interface_type. Per-request vlm_config overrides are accepted but not
// actioned against this singleton — see the per-request collaborator
// override design note.
func NewVLMClient(cfg *config.Config) vlm.VLM {
	return vlm.New(vlm.Config{
		InterfaceType: vlm.InterfaceType(cfg.VLM.InterfaceType),
		BaseURL:       cfg.VLM.BaseURL,
		APIKey:        cfg.VLM.APIKey,
		Model:         cfg.VLM.Model,
	})
}

// NewDoc2XClient constructs the MinerU-style PDF extraction client.
func NewDoc2XClient(cfg *config.Config) doc2x.DocumentParser {
	return doc2x.NewClient(cfg.Services.Doc2X)
}

// NewMarkitdownClient constructs the Word/PDF fallback conversion client.
func NewMarkitdownClient(cfg *config.Config) markitdown.Converter {
	return markitdown.NewClient(cfg.Services.Markitdown)
}

// NewDispatcher wires every format parser's collaborators once, shared
// across all requests.
func NewDispatcher(log *zap.Logger, st storage.ObjectStorage, mineru doc2x.DocumentParser, mc markitdown.Converter, cache *redis.CacheService) *formats.Dispatcher {
	return formats.NewDispatcher(log, st, mineru, mc, cache)
}

// NewIngestService wires the outer orchestrator from the dispatcher plus
// the OCR/VLM collaborators and the configured chunking defaults.
func NewIngestService(log *zap.Logger, dispatcher *formats.Dispatcher, cfg *config.Config, ocrEngine ocr.OCR, vlmClient vlm.VLM) *ingest.Service {
	return ingest.NewService(log, dispatcher, cfg.Chunking, ocrEngine, vlmClient)
}

// NewHTTPServer wraps the routed handler with the request-id, worker-pool,
// body-size, and panic-recovery middleware, then serves it h2c-style over
// plain net/http.
func NewHTTPServer(handler http.Handler, log *zap.Logger, cfg *config.Config) *http.Server {
	workers := cfg.Server.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	wrapped := middleware.WithRequestID(
		middleware.LimitConcurrency(workers)(
			middleware.MaxBodySize(int64(cfg.Server.MaxBodyMiB) << 20)(
				middleware.Recover(log)(handler),
			),
		),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("server: configured", zap.String("addr", addr))

	return &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(wrapped, &http2.Server{}),
	}
}

// StartHTTPServer hooks the HTTP server into the fx lifecycle: it starts
// listening on OnStart and shuts down gracefully on OnStop.
func StartHTTPServer(httpServer *http.Server, lifecycle fx.Lifecycle, shutdowner fx.Shutdowner, log *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("server: starting", zap.String("addr", httpServer.Addr))
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server: listen failed", zap.Error(err))
					if shutdownErr := shutdowner.Shutdown(); shutdownErr != nil {
						log.Error("server: shutdown after failed start also failed", zap.Error(shutdownErr))
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("server: stopping")
			return httpServer.Shutdown(ctx)
		},
	})
}
