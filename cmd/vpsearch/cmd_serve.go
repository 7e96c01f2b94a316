package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/vpsearch/internal/transport/chi"
	"github.com/kailas-cloud/vpsearch/internal/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, appOptionsFromFlags(cmd, true))
			if err != nil {
				return err
			}
			defer a.Close()

			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				a.cfg.HTTP.Port = port
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger
	cfg := a.cfg

	logger.Info("Starting vpsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	if cfg.Index.Name != "" {
		created, err := a.schema.Ensure(ctx)
		if err != nil {
			// Индекс может создаваться вне сервиса (Atlas UI), поэтому не падаем.
			logger.Warn("Failed to ensure vector index", zap.Error(err))
		} else if created {
			logger.Info("Vector index created", zap.String("index", cfg.Index.Name))
		}
	}

	server := chiTransport.NewServer(a.search, a.ingest, a.health, chiTransport.Defaults{
		FilterRole:     cfg.Search.FilterRole,
		CandidateLimit: cfg.Search.CandidateLimit,
		NumCandidates:  cfg.Search.NumCandidates,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.Router(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
