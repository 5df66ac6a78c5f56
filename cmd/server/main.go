package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/auth"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/email"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/handlers"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/moderation"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/telemetry"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/validation"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "echoes-api"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.FatalWithFields("Invalid configuration", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.FatalWithFields("Failed to initialize logger", err)
	}
	defer logger.Close()
	if envErr != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}
	logger.Log.Info("Echoes of Art API starting", zap.String("environment", cfg.Environment))

	ctx := context.Background()
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	metrics.Initialize()

	if err := database.Initialize(cfg.Database, cfg.Environment == "development"); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}
	if cfg.OTelEnabled {
		if err := database.EnableTracing(); err != nil {
			logger.WarnWithFields("Database tracing disabled", err)
		}
	}
	db := database.DB

	validator := validation.NewServiceValidator(cfg.RequiredServices)
	validator.Register("database", func(context.Context) error { return database.Health() })

	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, caching and shared rate limits disabled", err)
		} else {
			cache.SetRedisClient(redisClient)
			defer redisClient.Close()
			validator.Register("redis", redisClient.Ping)
		}
	}

	media, err := storage.NewUploader(cfg.Media)
	if err != nil {
		logger.FatalWithFields("Failed to initialize media storage", err)
	}
	if s3, ok := media.(*storage.S3Uploader); ok {
		validator.Register("storage", s3.CheckBucketAccess)
	}

	mailer, err := email.NewSender(cfg.Email)
	if err != nil {
		logger.FatalWithFields("Failed to initialize email sender", err)
	}

	gemini := moderation.NewGeminiClient(cfg.Gemini)
	if cfg.Gemini.APIKey != "" {
		validator.Register("gemini", gemini.Ping)
	}

	var esClient *search.Client
	if cfg.ElasticsearchURL != "" {
		httpClient := telemetry.NewInstrumentedHTTPClient(10 * time.Second)
		esClient, err = search.NewClient(cfg.ElasticsearchURL, httpClient.Transport)
		if err != nil {
			logger.WarnWithFields("Elasticsearch client disabled", err)
			esClient = nil
		} else {
			validator.Register("elasticsearch", esClient.Ping)
		}
	}

	validateCtx, cancelValidate := context.WithTimeout(ctx, 30*time.Second)
	if err := validator.ValidateServices(validateCtx); err != nil {
		cancelValidate()
		logger.FatalWithFields("Required service unavailable", err)
	}
	cancelValidate()

	var reconciler *search.ReconciliationService
	if esClient != nil {
		initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
		created, err := esClient.InitializeIndices(initCtx)
		cancelInit()
		if err != nil {
			logger.WarnWithFields("Failed to initialize search indices", err)
		} else {
			if created {
				// Fresh indices start empty; backfill them from the database.
				go func() {
					stats, err := search.Reindex(context.Background(), db, esClient)
					if err != nil {
						logger.WarnWithFields("Initial reindex failed", err)
						return
					}
					logger.Log.Info("Initial reindex finished", zap.Int("posts", stats.Posts), zap.Int("writings", stats.Writings))
				}()
			}
			reconciler = search.NewReconciliationService(db, esClient, 15*time.Minute)
			reconciler.Start()
			defer reconciler.Stop()
		}
	}
	searchService := search.NewService(esClient, db, redisClient)

	authService := auth.NewService(repository.NewUserRepository(db), mailer, media, auth.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.JWTTTL,
		OTPTTL:    cfg.OTPTTL,
	})

	hub := websocket.NewHub()
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, authService, originPatterns(cfg.ClientURL)...)

	h := handlers.NewHandlers(handlers.Deps{
		DB:      db,
		Media:   media,
		Gateway: gemini,
		Relay:   hub,
		Search:  searchService,
	})
	authHandlers := handlers.NewAuthHandlers(authService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(routerDeps{
		ClientURL: cfg.ClientURL,
		Tracing:   cfg.OTelEnabled,
		Validator: validator,
		Search:    searchService,
		Relay:     wsHandler,
		Auth:      authHandlers,
		Handlers:  h,
		Media:     media,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.WarnWithFields("Relay shutdown incomplete", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.WarnWithFields("Tracer shutdown failed", err)
	}
	logger.Log.Info("Server exited")
}

// originPatterns converts CLIENT_URL into the host patterns the relay
// accepts during the handshake.
func originPatterns(clientURL string) []string {
	host := strings.TrimPrefix(strings.TrimPrefix(clientURL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return []string{"*"}
	}
	return []string{host}
}
