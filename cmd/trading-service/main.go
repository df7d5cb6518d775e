package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nsplit-trader/internal/trading/config"
	delivery "nsplit-trader/internal/trading/delivery/http"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/internal/trading/service"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/postgres"
	"nsplit-trader/pkg/redis"
	"nsplit-trader/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the trading service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Trading Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize Telegram notifier
	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db.DB)
	positionRepo := repository.NewPositionRepository(db.DB)
	eventRepo := repository.NewSessionEventRepository(db.DB)
	simulatorRepo, err := repository.NewSimulatorRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize simulator client", logger.ErrorField(err))
	}

	// Initialize services
	sessionSvc := service.NewSessionService(sessionRepo, positionRepo, eventRepo, simulatorRepo, appLogger)
	strategySvc := service.NewStrategyService(sessionRepo, positionRepo, eventRepo, simulatorRepo, telegramNotifier, appLogger)

	pollingInterval, err := time.ParseDuration(cfg.Worker.PollingInterval)
	if err != nil {
		appLogger.Fatal("Invalid polling interval", logger.ErrorField(err))
	}
	sessionLockTTL, err := time.ParseDuration(cfg.Worker.SessionLockTTL)
	if err != nil {
		appLogger.Fatal("Invalid session lock TTL", logger.ErrorField(err))
	}
	workerSvc := service.NewWorkerService(sessionRepo, strategySvc, redisClient, appLogger, pollingInterval, sessionLockTTL)

	// Start strategy worker
	go workerSvc.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	sessionHandler := delivery.NewSessionHandler(sessionSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	sessionHandler.RegisterRoutes(apiV1.Group("/sessions"))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "trading-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-trading.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing trading-service CLI: %s\n", err)
		os.Exit(1)
	}
}
