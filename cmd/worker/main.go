package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emrepbu/loginflow/internal/config"
	"github.com/emrepbu/loginflow/internal/database"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/queue"
	"github.com/emrepbu/loginflow/internal/workers"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once deferred cleanup has run
func run() int {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if !cfg.EventsEnabled() {
		zapLogger.Error("rabbitmq_url_not_configured")
		return 1
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Error("failed_to_connect_to_database", zap.Error(err))
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	eventQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Error("failed_to_connect_to_rabbitmq", zap.Error(err))
		return 1
	}
	defer func() {
		if err := eventQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	recorder := workers.NewActivityRecorder(database.NewUserActivityRepository(db), eventQueue, zapLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := recorder.Run(ctx, eventQueue, cfg.RabbitMQPrefetch); err != nil {
		zapLogger.Error("worker_stopped", zap.Error(err))
		return 1
	}
	return 0
}
