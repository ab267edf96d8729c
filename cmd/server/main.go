// Package main runs the launchpad HTTP server:
// - Listings: active tokens, tokens by creator, token by address
// - Launches: multipart submission, progress polling, cancellation
// - Operations: /health, /status, /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"token-launchpad/internal/app"
	"token-launchpad/internal/config"
	"token-launchpad/internal/ratelimit"
)

func main() {
	configFile := flag.String("config", os.Getenv("LAUNCHPAD_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	root := cfg.Logger()
	logger := root.WithField("component", "server")

	if err := cfg.ValidateLaunch(); err != nil {
		logger.WithError(err).Fatal("invalid launch configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	launchpad, err := app.New(ctx, cfg, root, app.Options{})
	if err != nil {
		logger.WithError(err).Fatal("build launch pipeline")
	}
	defer launchpad.Close()

	if n, err := launchpad.Journal.Len(); err == nil && n > 0 {
		logger.WithField("pending", n).Warn("recovery journal holds unpersisted launch records, run recover replay")
	}

	registry := newLaunchRegistry(ctx, launchpad.Orchestrator)

	a := &api{
		records:        launchpad.Records,
		launches:       registry,
		limiter:        ratelimit.PerMinute(cfg.RateLimit.LaunchesPerMinute, cfg.RateLimit.Burst),
		logger:         logger,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
		started:        time.Now(),
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.Server.Addr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Launches already signing must reach a terminal state before the
		// stores and the recovery journal are closed.
		cancelled, sequencing := registry.Drain()
		logger.WithFields(logrus.Fields{
			"cancelled":  cancelled,
			"sequencing": sequencing,
		}).Info("launches drained")
		return err
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server error")
		launchpad.Close()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
