// Command pullpipe serves directory archives and command output as streamed
// HTTP downloads. Each response is produced by a writer-driven producer and
// pulled through a stream.Reader.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/pullpipe/config"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
	"github.com/kbukum/pullpipe/server"
	"github.com/kbukum/pullpipe/version"
)

const serviceName = "pullpipe"

func main() {
	if err := run(); err != nil {
		logger.Error("pullpipe exited", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.Load(serviceName, &cfg); err != nil {
		return err
	}
	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting", version.Get().Fields())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Short(), cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()

	metrics, err := observability.NewStreamMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	a := newApp(&cfg, log, metrics)
	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, a.checkers()...)
	a.register(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("signal received")

	return srv.Stop(context.Background())
}
