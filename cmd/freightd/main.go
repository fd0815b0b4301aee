package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/freight-reader/internal/async"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/export"
	"github.com/joseph-ayodele/freight-reader/internal/intake"
	repo "github.com/joseph-ayodele/freight-reader/internal/repository"
	svc "github.com/joseph-ayodele/freight-reader/internal/server"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
	"github.com/joseph-ayodele/freight-reader/internal/vision/anthropic"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	client := anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.Vision.APIKey,
		BaseURL:   cfg.Vision.BaseURL,
		Model:     cfg.Vision.Model,
		MaxTokens: cfg.Vision.MaxTokens,
		Timeout:   cfg.Vision.Timeout,
		Retries:   cfg.Vision.Retries,
		RPS:       cfg.Vision.RPS,
	}, logger)
	runner := vision.NewRunner(client, logger,
		vision.WithWorkers(cfg.Intake.Workers),
		vision.WithTimeout(cfg.Intake.ExtractTimeout),
		vision.WithMaxPages(cfg.Intake.MaxPages),
	)

	documents := repo.NewDocumentRepository(db, logger)
	intakeService := intake.NewService(documents, runner, export.NewService(logger), logger)

	queue := async.NewProcessorQueue(intakeService, logger,
		async.WithWorkers(cfg.Intake.QueueWorkers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(cfg.Intake.ExtractTimeout+5*time.Second),
	)
	intakeService.SetQueue(queue)

	grpcServer, healthServer := svc.NewGRPCServer(svc.NewIntakeServer(intakeService, logger), logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("freightd listening", "addr", cfg.Server.GRPCAddr, "db_driver", cfg.Database.Driver, "model", cfg.Vision.Model)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC serve error", "error", err)
		}
	}

	logger.Info("shutting down")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Intake.ExtractTimeout+10*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
