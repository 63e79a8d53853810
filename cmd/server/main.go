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

	"inventory-hub/config"
	"inventory-hub/internal/api"
	"inventory-hub/internal/broker"
	"inventory-hub/internal/generator"
	"inventory-hub/internal/hub"
	"inventory-hub/internal/redisclient"
	"inventory-hub/internal/service"
	"inventory-hub/internal/store"
	"inventory-hub/internal/util"
	"inventory-hub/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory hub")

	tp, err := util.InitTracer("inventory-hub", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var recordStore store.RecordStore
	if cfg.Database.URL == "memory" {
		recordStore = store.NewMemory()
		logger.Info("Using in-process record store")
	} else {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		recordStore = pg
		logger.Info("Database connected")
	}

	var dedup api.DeliveryDeduper
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, webhook delivery dedup disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		dedup = redisClient
		logger.Info("Redis connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOutbound)
	defer producer.Close()
	mirror := broker.NewEventMirror(producer)

	broadcastHub := hub.New()
	alertService := service.NewAlertService(recordStore)
	pipeline := service.NewPipeline(recordStore, alertService, broadcastHub, mirror, cfg.Pipeline.LowStockThreshold)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	pipeline.StartPeriodicSweep(rootCtx, cfg.Pipeline.SweepInterval)

	if cfg.Pipeline.GeneratorEnabled {
		gen := generator.New(pipeline, recordStore, cfg.Pipeline.GeneratorInterval)
		gen.Start(rootCtx)
	}

	var eventWorker *worker.EventWorker
	if cfg.Kafka.TopicInbound != "" {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicInbound, cfg.Kafka.ConsumerGroup)
		eventWorker = worker.NewEventWorker(consumer, pipeline)
		go func() {
			if err := eventWorker.Start(rootCtx); err != nil {
				logger.Warn("Event worker stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(pipeline, alertService, recordStore, broadcastHub, dedup,
		cfg.Pipeline.DeliveryTTL, cfg.Pipeline.LowStockThreshold)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	rootCancel()
	if eventWorker != nil {
		_ = eventWorker.Stop()
	}

	logger.Info("Server exited")
}
