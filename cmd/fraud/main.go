package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harborcrew/boatmarket/internal/cancellation"
	"github.com/harborcrew/boatmarket/internal/fraud"
	"github.com/harborcrew/boatmarket/internal/notifications"
	"github.com/harborcrew/boatmarket/pkg/common"
	"github.com/harborcrew/boatmarket/pkg/config"
	"github.com/harborcrew/boatmarket/pkg/database"
	"github.com/harborcrew/boatmarket/pkg/eventbus"
	"github.com/harborcrew/boatmarket/pkg/logger"
	"github.com/harborcrew/boatmarket/pkg/middleware"
	"github.com/harborcrew/boatmarket/pkg/redis"
)

const serviceName = "fraud"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := database.RunMigrations(&cfg.Database); err != nil {
		logger.Fatal("unable to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("unable to connect to postgres", zap.Error(err))
	}
	defer database.Close(db)

	// Pattern comparison caching degrades gracefully without Redis.
	var cache fraud.Cache
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, pattern caching disabled", zap.Error(err))
	} else {
		cache = redisClient
		defer redisClient.Close()
	}

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("unable to connect to nats", zap.Error(err))
		}
		defer bus.Close()
	}

	gateway := fraud.NewModelGateway(fraud.GatewayConfig{
		BaseURL:        cfg.MLService.BaseURL,
		HealthTimeout:  time.Duration(cfg.MLService.HealthTimeoutSecs) * time.Second,
		RequestTimeout: time.Duration(cfg.MLService.RequestTimeoutSecs) * time.Second,
		ProbeInterval:  time.Duration(cfg.MLService.ProbeIntervalSecs) * time.Second,
		RecheckDelay:   time.Duration(cfg.MLService.RecheckDelaySecs) * time.Second,
	})
	gateway.Start()
	defer gateway.Stop()

	fraudRepo := fraud.NewPostgresRepository(db)
	fraudService := fraud.NewService(fraudRepo, gateway, cache)
	fraudHandler := fraud.NewHandler(fraudService)

	notificationsRepo := notifications.NewPostgresRepository(db)
	var notificationsService *notifications.Service
	if bus != nil {
		notificationsService = notifications.NewService(notificationsRepo, bus)
		eventHandler := notifications.NewEventHandler(notifications.NewService(notificationsRepo, nil))
		if err := eventHandler.Subscribe(context.Background(), bus); err != nil {
			logger.Fatal("unable to subscribe to fraud events", zap.Error(err))
		}
	} else {
		notificationsService = notifications.NewService(notificationsRepo, nil)
	}
	notificationsHandler := notifications.NewHandler(notificationsService)

	bookingRepo := cancellation.NewPostgresRepository(db)
	cancellationService := cancellation.NewService(bookingRepo, fraudService, notificationsService)
	cancellationHandler := cancellation.NewHandler(cancellationService)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"postgres": func() error { return db.Ping(context.Background()) },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	fraudHandler.RegisterRoutes(api)
	notificationsHandler.RegisterRoutes(api)
	cancellationHandler.RegisterRoutes(api)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("fraud service starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down fraud service")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
