package httpapi

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/generation"
	"inkwell/internal/middleware"
	"inkwell/internal/objectstore"
	"inkwell/internal/pricing"
	"inkwell/internal/providers"
	"inkwell/internal/queue"
	"inkwell/internal/routing"
	"inkwell/internal/storage"
	"inkwell/internal/utils"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	DB            *storage.DB
	Service       *generation.Service
	HistoryWorker *storage.HistoryQueueWorker

	historyQueue queue.Queue
	historyDLQ   queue.DeadLetterQueue
	logger       *utils.Logger
}

// NewRouter creates an HTTP router with all dependencies wired up
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	db, err := storage.NewDB(storage.DBConfig{
		DSN:                 cfg.Database.URL,
		MaxOpenConns:        cfg.Database.MaxOpenConns,
		MaxIdleConns:        cfg.Database.MaxIdleConns,
		ConnMaxLifetime:     cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:     cfg.Database.ConnMaxIdleTime,
		CredentialCacheSize: cfg.Cache.CredentialCacheSize,
		CredentialCacheTTL:  cfg.Cache.CredentialCacheTTL,
		PricingCacheSize:    cfg.Cache.PricingCacheSize,
		PricingCacheTTL:     cfg.Cache.PricingCacheTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	encryption, err := storage.NewEncryptionFromBase64(cfg.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	// Repositories
	credentialRepo := storage.NewCredentialRepository(db, encryption)
	pricingRepo := storage.NewPricingRepository(db)
	historyRepo := storage.NewHistoryRepository(db)
	adminUserRepo := storage.NewAdminUserRepository(db)

	// History persistence queue
	queueCfg := queue.DefaultConfig("history")
	queueCfg.UseRedis = cfg.Queue.UseRedis
	queueCfg.BatchSize = cfg.Queue.BatchSize
	queueCfg.BatchTimeout = cfg.Queue.BatchTimeout
	queueCfg.MaxRetries = cfg.Queue.MaxRetries
	queueCfg.RetryBackoff = cfg.Queue.RetryBackoff

	var historyQueue queue.Queue
	var historyDLQ queue.DeadLetterQueue
	if cfg.Queue.UseRedis {
		queueCfg.RedisAddr = cfg.Redis.Address
		queueCfg.RedisPassword = cfg.Redis.Password
		queueCfg.RedisDB = cfg.Redis.DB
		redisQueue, err := queue.NewRedisQueue(queueCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create history queue: %w", err)
		}
		historyQueue = redisQueue
		historyDLQ = queue.NewRedisDeadLetterQueue(redisQueue.Client(), queueCfg.QueueName)
	} else {
		historyQueue = queue.NewMemoryQueue(queueCfg)
		historyDLQ = queue.NewMemoryDeadLetterQueue()
	}

	historyWorker := storage.NewHistoryQueueWorker(historyQueue, historyDLQ, historyRepo, queueCfg)
	historyWorker.Start(context.Background())

	// Optional S3 store for generated images
	var imageStore generation.ImageStore
	if cfg.ObjectStore.Enabled {
		s3Store, err := objectstore.NewS3Store(
			context.Background(),
			cfg.ObjectStore.Bucket,
			cfg.ObjectStore.Region,
			cfg.ObjectStore.Prefix,
			cfg.ObjectStore.PublicBaseURL,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize object store: %w", err)
		}
		imageStore = s3Store
	}

	// Generation pipeline
	router := routing.NewRouter(credentialRepo)
	calculator := pricing.NewCalculator(pricingRepo)
	completer := providers.NewChatCompleter(cfg.Provider.OpenAIBaseURL, cfg.Provider.RequestTimeout)
	registry := providers.NewRegistry(cfg.Provider.RequestTimeout)

	service := generation.NewService(router, completer, registry, calculator, historyWorker, imageStore)
	tips := generation.NewTipSource(rand.New(rand.NewSource(time.Now().UnixNano())))

	deps := &Dependencies{
		DB:            db,
		Service:       service,
		HistoryWorker: historyWorker,
		historyQueue:  historyQueue,
		historyDLQ:    historyDLQ,
		logger:        utils.NewLogger("httpapi"),
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg, routerStores{
		admins:      adminUserRepo,
		credentials: credentialRepo,
		pricing:     pricingRepo,
		history:     historyRepo,
		tips:        tips,
	})

	return mux, deps, nil
}

// routerStores carries the store implementations handed to handlers.
type routerStores struct {
	admins      AdminStore
	credentials CredentialStore
	pricing     PricingStore
	history     HistoryStore
	tips        *generation.TipSource
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, cfg *config.Config, stores routerStores) {
	// User-facing endpoints
	generationsHandler := NewGenerationsHandler(deps.Service, stores.history)
	mux.Handle("/v1/generations", generationsHandler)
	mux.HandleFunc("/v1/generations/image", generationsHandler.GenerateImage)
	mux.HandleFunc("/v1/generations/", generationsHandler.GetRecord)
	mux.Handle("/v1/tips", NewTipsHandler(stores.tips))

	// Health check endpoint - public
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.Health(r.Context()); err != nil {
				utils.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Admin authentication - public (no middleware)
	adminAuthHandler := NewAdminAuthHandler(stores.admins, cfg)
	mux.HandleFunc("/admin/auth/login", adminAuthHandler.Login)

	// Admin management endpoints - viewer reads, admin writes
	viewerJWT := middleware.AdminJWTMiddleware(cfg, "viewer")
	adminJWT := middleware.AdminJWTMiddleware(cfg, "admin")

	credentialsHandler := NewAdminCredentialsHandler(stores.credentials)
	mux.Handle("/admin/credentials", requireWriteRole(credentialsHandler, viewerJWT, adminJWT))
	mux.Handle("/admin/credentials/", adminJWT(credentialsHandler))

	pricingHandler := NewAdminPricingHandler(stores.pricing)
	mux.Handle("/admin/pricing", requireWriteRole(pricingHandler, viewerJWT, adminJWT))
	mux.Handle("/admin/pricing/", adminJWT(pricingHandler))
}

// requireWriteRole applies the viewer middleware to reads and the admin
// middleware to everything else.
func requireWriteRole(next http.Handler, viewer, admin func(http.Handler) http.Handler) http.Handler {
	viewerWrapped := viewer(next)
	adminWrapped := admin(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			viewerWrapped.ServeHTTP(w, r)
			return
		}
		adminWrapped.ServeHTTP(w, r)
	})
}

// Shutdown stops the background worker and closes shared resources.
func (d *Dependencies) Shutdown(ctx context.Context) error {
	if d.HistoryWorker != nil {
		if err := d.HistoryWorker.Stop(); err != nil {
			d.logger.Error("Failed to stop history worker", "error", err)
		}
	}
	if d.historyQueue != nil {
		if err := d.historyQueue.Close(); err != nil {
			d.logger.Error("Failed to close history queue", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
