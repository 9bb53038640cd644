package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ptran999/nodebucket/internal/audit"
	"github.com/ptran999/nodebucket/internal/cache"
	"github.com/ptran999/nodebucket/internal/config"
	"github.com/ptran999/nodebucket/internal/store"
	"github.com/ptran999/nodebucket/internal/store/memstore"
	"github.com/ptran999/nodebucket/internal/store/mongostore"
	"github.com/ptran999/nodebucket/internal/taskapi"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the nodebucket API server",
	Long:  `Starts the HTTP API for employee task lists on the configured store.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address for the API server (overrides listen)")
}

// gateway is a store.Gateway that can also provision employees.
type gateway interface {
	store.Gateway
	store.Provisioner
}

// openGateway opens the configured store and wraps it with the Redis cache
// when one is configured. The returned cleanup closes everything opened.
func openGateway(ctx context.Context, c *config.Config, logger *log.Logger) (gateway, func(), error) {
	var base gateway
	switch c.Store.Driver {
	case config.DriverMongo:
		s, err := mongostore.New(ctx, c.Store.MongoURI, c.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		base = s
	case config.DriverMemory:
		base = memstore.New()
	default:
		s, err := store.New(c.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		base = s
	}
	logger.WithField("driver", c.Store.Driver).Info("store opened")

	if c.Cache.RedisURL == "" {
		return base, func() { closeLogged(logger, "store", base.Close) }, nil
	}

	opts, err := redis.ParseURL(c.Cache.RedisURL)
	if err != nil {
		_ = base.Close()
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, reads fall back to the store")
	}
	cached := cache.New(base, rc, c.Cache.TTL, logger)
	cleanup := func() {
		closeLogged(logger, "store", cached.Close)
		closeLogged(logger, "redis", rc.Close)
	}
	return cached, cleanup, nil
}

func closeLogged(logger *log.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.WithError(err).Errorf("%s close error", what)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := cfg.NewLogger()
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}

	logger.Info("Starting nodebucket API...")
	gw, cleanup, err := openGateway(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	auditLogger := cfg.NewLogger()
	service := taskapi.NewService(gw, audit.NewRecorder(auditLogger), logger)
	server := taskapi.NewServer(service, cfg.Listen, version, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server error")
			cleanup()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}

	logger.Info("Closing store...")
	cleanup()

	logger.Info("Shutdown complete")
	return nil
}
