package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jorgelunams/contratospoc/internal/async"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/server"
	"github.com/jorgelunams/contratospoc/internal/services"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("contractsd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("contractsd stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	app, err := services.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Health(ctx); err != nil {
		return err
	}
	logger.Info("DB health OK")

	queue := async.NewProcessorQueue(app.Processor, logger,
		async.WithWorkers(cfg.Worker.Workers),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.ProcessTimeout),
	)

	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewRouter(queue, server.HTTPConfig{
			JWTSecret: cfg.Server.JWTSecret,
			Health:    app.Health,
			Stats:     queue.Stats,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcSrv, hs := server.NewGRPCServer()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP serving", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return err
		}
		logger.Info("gRPC health serving", "addr", cfg.Server.GRPCAddr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		server.WatchHealth(gctx, hs, app.Health, 15*time.Second, logger)
		return nil
	})

	if cfg.NSQ.Lookupd != "" || cfg.NSQ.NSQD != "" {
		consumer, err := server.StartConsumer(server.NSQConfig{
			Lookupd:     cfg.NSQ.Lookupd,
			NSQD:        cfg.NSQ.NSQD,
			Topic:       cfg.NSQ.Topic,
			Channel:     cfg.NSQ.Channel,
			MaxInFlight: cfg.Worker.Workers,
		}, server.NewEventConsumer(queue, logger), logger)
		if err != nil {
			logger.Error("NSQ consumer disabled", "error", err)
		} else {
			g.Go(func() error {
				<-gctx.Done()
				consumer.Stop()
				<-consumer.StopChan
				return nil
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		err := httpSrv.Shutdown(sctx)
		grpcSrv.GracefulStop()
		queue.Shutdown(sctx)
		return err
	})

	return g.Wait()
}
