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

	"nsplit-trader/internal/simulator/config"
	delivery "nsplit-trader/internal/simulator/delivery/http"
	"nsplit-trader/internal/simulator/engine"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/internal/simulator/service"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/postgres"
	"nsplit-trader/pkg/redis"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the stock simulator service",
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

	appLogger.Info("Starting Simulator Service", logger.Field("name", cfg.App.Name))

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

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	historyRepo := repository.NewPriceHistoryRepository(db.DB)

	// Initialize services
	generator := engine.NewPriceGenerator(cfg.Simulator.DefaultVolatilityPct)
	priceSvc := service.NewPriceService(generator, historyRepo, redisClient, appLogger)
	orderSvc := service.NewOrderService(orderRepo, accountRepo, appLogger)
	accountSvc := service.NewAccountService(accountRepo, cfg.Simulator.InitialCash, appLogger)

	updateInterval, err := time.ParseDuration(cfg.Simulator.PriceUpdateInterval)
	if err != nil {
		appLogger.Fatal("Invalid price update interval", logger.ErrorField(err))
	}
	historyRetention, err := time.ParseDuration(cfg.Simulator.HistoryRetention)
	if err != nil {
		appLogger.Fatal("Invalid history retention", logger.ErrorField(err))
	}
	updaterSvc, err := service.NewPriceUpdaterService(generator, historyRepo, redisClient, appLogger, updateInterval, historyRetention, cfg.Simulator.HistoryPruneCron)
	if err != nil {
		appLogger.Fatal("Failed to initialize price updater", logger.ErrorField(err))
	}

	// Start price updater
	go updaterSvc.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	api := e.Group("/api", delivery.APIKeyMiddleware(cfg.Simulator.APIKey))

	priceHandler := delivery.NewPriceHandler(priceSvc, appLogger)
	priceHandler.RegisterRoutes(api.Group("/price"))

	orderHandler := delivery.NewOrderHandler(orderSvc, appLogger)
	orderHandler.RegisterRoutes(api.Group("/order"))

	accountHandler := delivery.NewAccountHandler(accountSvc, appLogger)
	accountHandler.RegisterRoutes(api.Group("/account"))

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
	rootCmd := &cobra.Command{Use: "simulator-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-simulator.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing simulator-service CLI: %s\n", err)
		os.Exit(1)
	}
}
