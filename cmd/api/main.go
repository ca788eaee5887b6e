package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/internal/eventlog"
	"github.com/certhq/certify/internal/fraud"
	"github.com/certhq/certify/internal/search"
	"github.com/certhq/certify/internal/verification"
	"github.com/certhq/certify/pkg/config"
	"github.com/certhq/certify/pkg/database"
	"github.com/certhq/certify/pkg/eventbus"
	"github.com/certhq/certify/pkg/health"
	"github.com/certhq/certify/pkg/logger"
	"github.com/certhq/certify/pkg/middleware"
	"github.com/certhq/certify/pkg/ratelimit"
	"github.com/certhq/certify/pkg/redis"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("certify-api")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Get()

	// Run database migrations
	if err := database.RunMigrations(&cfg.Database, "migrations"); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	log.Info("connected to PostgreSQL")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Connect to NATS (optional)
	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(cfg.NATS.URL)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer bus.Close()
			log.Info("connected to NATS", zap.String("url", cfg.NATS.URL))
		}
	}
	var publisher fraud.EventPublisher
	if bus != nil {
		publisher = bus
	}

	// Repositories
	certRepo := certificates.NewRepository(pool)
	eventRepo := eventlog.NewRepository(pool)
	alertRepo := fraud.NewRepository(pool)

	// Services
	certService := certificates.NewService(certRepo)
	fraudService := fraud.NewService(alertRepo, publisher, cfg.Fraud)
	analyzer := fraud.NewAnalyzer(eventRepo, certRepo, fraudService, cfg.Fraud)
	worker := fraud.NewWorker(analyzer, cfg.Fraud.WorkerCount, cfg.Fraud.WorkerQueueSize)
	defer worker.Stop()

	// With NATS connected, analysis jobs flow through the bus so a queue
	// group spreads them across instances; otherwise they are enqueued
	// in-process.
	var analysisQueue verification.AnalysisQueue
	if bus != nil {
		err := bus.Subscribe(context.Background(), eventbus.SubjectVerifications,
			fraud.AnalysisQueueGroup, fraud.VerificationEventHandler(worker))
		if err != nil {
			log.Warn("failed to subscribe to verification events, using in-process queue", zap.Error(err))
			analysisQueue = worker
		}
	} else {
		analysisQueue = worker
	}

	searchService := search.NewService(certRepo, redisClient.Client, cfg.Search)
	verifyService := verification.NewService(certRepo, eventRepo, analysisQueue, busPublisher(bus))

	// Handlers
	certHandler := certificates.NewHandler(certService)
	fraudHandler := fraud.NewHandler(fraudService)
	searchHandler := search.NewHandler(searchService)
	verifyHandler := verification.NewHandler(verifyService)

	// Rate limiter for the public verification endpoint
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
	}

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	dbCheck := health.NewCachedChecker(health.PostgresChecker(pool), 5*time.Second)
	redisCheck := health.NewCachedChecker(health.RedisChecker(redisClient.Client), 5*time.Second)
	router.GET("/healthz", health.Handler(cfg.Server.ServiceName, serviceVersion, map[string]health.Checker{
		"postgres": dbCheck.Check,
		"redis":    redisCheck.Check,
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	verification.RegisterRoutes(router, verifyHandler, limiter)
	search.RegisterRoutes(router, searchHandler, cfg.JWT.Secret)
	fraud.RegisterRoutes(router, fraudHandler, cfg.JWT.Secret)
	certificates.RegisterRoutes(router, certHandler, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

// busPublisher avoids handing services a non-nil interface wrapping a nil bus
func busPublisher(bus *eventbus.Bus) verification.EventPublisher {
	if bus == nil {
		return nil
	}
	return bus
}
