package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/reorder-replay/internal/api"
	"github.com/andresuchdata/reorder-replay/internal/cache"
	"github.com/andresuchdata/reorder-replay/internal/config"
	"github.com/andresuchdata/reorder-replay/internal/forecast"
	"github.com/andresuchdata/reorder-replay/internal/reorder"
	"github.com/andresuchdata/reorder-replay/internal/repository/postgres"
	"github.com/andresuchdata/reorder-replay/internal/service"
	"github.com/andresuchdata/reorder-replay/internal/simulation"
	"github.com/andresuchdata/reorder-replay/internal/storage"
	"github.com/andresuchdata/reorder-replay/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	stockRepo := postgres.NewStockRepository(db)
	salesRepo := postgres.NewSalesRepository(db)
	productRepo := postgres.NewProductRepository(db)

	engine := simulation.NewOrchestrator(
		simulation.Providers{
			Stock:     stockRepo,
			Sales:     salesRepo,
			RealStock: stockRepo,
			Products:  productRepo,
			LeadTimes: productRepo,
			Forecasts: forecast.NewMovingAverage(salesRepo, cfg.Simulation.ForecastTrainingDays),
		},
		reorder.NewCalculator(),
		simulation.Config{
			ForecastRefreshDays: cfg.Simulation.ForecastRefreshDays,
			ForecastHorizonDays: cfg.Simulation.ForecastHorizonDays,
			DefaultLeadTimeDays: cfg.Simulation.DefaultLeadTimeDays,
			MaxConcurrentItems:  cfg.Simulation.MaxConcurrentItems,
		},
	)

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Result cache unavailable, continuing without")
		resultCache = cache.NewNoopResultCache()
	}

	var exporter service.Exporter
	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		exporter = storage.NewResultExporter(store, cfg.Storage.Prefix)
	}

	simulationService := service.NewSimulationService(engine, resultCache, exporter)

	router := api.NewRouter(&api.Services{SimulationService: simulationService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
