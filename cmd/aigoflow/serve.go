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

	"github.com/spf13/cobra"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/httpapi"
	"github.com/leofalp/aigoflow/providers/observability"
	"github.com/leofalp/aigoflow/providers/observability/promobs"
	"github.com/leofalp/aigoflow/providers/store/redisstore"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long:  `Starts the HTTP API for running flows and chains, with Prometheus metrics on /metrics. With --redis-addr, chain results are stored in Redis and node status events are published on aigoflow:run:<executionId>.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		redisTTL, _ := cmd.Flags().GetDuration("redis-ttl")

		logger := newObserver(cmd)
		metrics := promobs.New(logger)
		runner := engine.NewRunner(newFactory(logger.Logger()), engine.WithObserver(metrics))

		serverOpts := []httpapi.Option{
			httpapi.WithObserver(metrics),
			httpapi.WithMetricsHandler(metrics.Handler()),
		}
		if redisAddr != "" {
			store := redisstore.New(redisAddr, "", 0, redisstore.WithTTL(redisTTL))
			if err := store.Client().Ping(cmd.Context()).Err(); err != nil {
				return fmt.Errorf("redis at %s is unreachable: %w", redisAddr, err)
			}
			serverOpts = append(serverOpts,
				httpapi.WithResultStore(store),
				httpapi.WithStatusObserver(redisstore.NewPublisher(store.Client(), logger)),
			)
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewServer(runner, serverOpts...).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info(cmd.Context(), "server listening", observability.String("http.addr", addr))
			serverErrors <- server.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			logger.Info(cmd.Context(), "shutting down", observability.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				_ = server.Close()
				return fmt.Errorf("graceful shutdown did not complete: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("redis-addr", envOr(envRedisAddr, ""), "Redis address for chain results and status events")
	serveCmd.Flags().Duration("redis-ttl", 24*time.Hour, "expiration of chain results stored in Redis")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
