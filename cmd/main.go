package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/DevanshVerma21/SafeNow/internal/broadcast"
	"github.com/DevanshVerma21/SafeNow/internal/config"
	"github.com/DevanshVerma21/SafeNow/internal/dispatch"
	"github.com/DevanshVerma21/SafeNow/internal/eta"
	v1 "github.com/DevanshVerma21/SafeNow/internal/handler/http/v1"
	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/DevanshVerma21/SafeNow/internal/repository"
	"github.com/DevanshVerma21/SafeNow/internal/service"
	"github.com/DevanshVerma21/SafeNow/internal/webhook"
	"github.com/DevanshVerma21/SafeNow/pkg/logger"
	"github.com/DevanshVerma21/SafeNow/pkg/postgres"
	redisclient "github.com/DevanshVerma21/SafeNow/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/DevanshVerma21/SafeNow/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title SafeNow Dispatch API
// @version 1.0
// @description Emergency alert dispatch and realtime distribution engine.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New("file://migrations", migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// connectPostgres возвращает nil, если база не настроена или недоступна:
// тогда движок работает на хранилище в памяти
func connectPostgres(ctx context.Context, cfg *config.Config, log *logrus.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using in-memory storage")
		return nil
	}
	if err := runMigrations(cfg, log); err != nil {
		log.WithError(err).Error("Failed to run database migrations, using in-memory storage")
		return nil
	}
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Error("Failed to connect to PostgreSQL, using in-memory storage")
		return nil
	}
	log.Info("Successfully connected to PostgreSQL")
	return dbpool
}

// connectRedis возвращает nil в режиме одного инстанса
func connectRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR is not set, running as a single instance")
		return nil
	}
	client, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, running as a single instance")
		return nil
	}
	log.Info("Successfully connected to Redis")
	return client
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.InstanceID)

	appMetrics, err := metrics.New(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Хранилища: PostgreSQL с зеркалом в памяти или только память
	var (
		alertRepo       service.AlertRepository
		alertMirror     service.AlertMirror
		responderRepo   service.ResponderRepository
		responderMirror service.ResponderRepository
	)
	if dbpool := connectPostgres(ctx, cfg, log); dbpool != nil {
		defer dbpool.Close()
		alertRepo = repository.NewAlertRepository(dbpool)
		responderRepo = repository.NewResponderRepository(dbpool)
		alertMirror = repository.NewMemoryAlertStore()
		responderMirror = repository.NewMemoryResponderStore()
	} else {
		alertRepo = repository.NewMemoryAlertStore()
		responderRepo = repository.NewMemoryResponderStore()
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Оценка времени прибытия
	var etaRedis redis.Cmdable
	if redisClient != nil {
		etaRedis = redisClient
	}
	etaCache := eta.NewCache(etaRedis, cfg.ETACacheTTL, cfg.ETACoordPrecision, log)

	var provider eta.RoutingProvider
	if cfg.GoogleMapsAPIKey != "" {
		googleRouter, err := eta.NewGoogleRouter(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.WithError(err).Warn("Failed to create Google Maps client, using straight-line estimates")
		} else {
			provider = googleRouter
		}
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY is not set, using straight-line estimates")
	}
	estimator := eta.NewEstimator(etaCache, provider, cfg.RoutingTimeout, log, appMetrics)
	selector := dispatch.NewSelector(estimator, log)

	responderService := service.NewResponderService(responderRepo, responderMirror, log)

	// Рассылка событий: локальные клиенты, соседние инстансы, вебхук
	hub := broadcast.NewHub(log, appMetrics)
	var (
		relay    broadcast.Publisher
		webhooks broadcast.Publisher
	)
	var redisRelay *broadcast.RedisRelay
	if redisClient != nil {
		redisRelay = broadcast.NewRedisRelay(redisClient, cfg.BroadcastChannel, cfg.InstanceID, log, appMetrics)
		relay = redisRelay

		if cfg.WebhookURL != "" {
			webhooks = webhook.NewRedisPublisher(redisClient)
			webhook.NewWorker(redisClient, log, cfg).Start(ctx)
		}
	}

	enricher := broadcast.NewEnricher(responderService, estimator, selector, cfg.CandidatePoolSize, log)
	broadcaster := broadcast.NewBroadcaster(hub, enricher, relay, webhooks, cfg.InstanceID, log)

	if redisRelay != nil {
		go func() {
			if err := redisRelay.Run(ctx, broadcaster.DeliverRemote); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Broadcast relay stopped, events stay local to this instance")
			}
		}()
	}

	scheduler := dispatch.NewScheduler(log)
	alertService := service.NewAlertService(
		alertRepo, alertMirror, responderService, selector, scheduler, broadcaster, log, cfg, appMetrics,
	)

	sweeper := dispatch.NewSweeper(alertRepo, cfg.SweepInterval, cfg.ResolvedRetention, alertService.HandleSwept, log, appMetrics)
	sweeper.Start(ctx)

	// Инициализация хэндлеров
	handler := v1.NewHandler(alertService, responderService, hub, log, cfg)

	// Настройка Gin роутера
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Отложенные задачи отменяются, алерты подберет очистка после рестарта
	scheduler.Stop()
	cancel()
	hub.Close()

	log.Info("Server gracefully stopped")
}
