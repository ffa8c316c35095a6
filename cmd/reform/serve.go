package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/internal/server"
	"github.com/goliatone/go-reform/pkg/events"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve form sessions over HTTP",
	Long: `Serve form sessions over HTTP. Sessions are created by posting a form
payload to /sessions and are saved to the configured progress store. With the
redis store every session event is also published on <redis-prefix>events.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	options := []server.Option{
		server.WithLogger(logger),
		server.WithStorage(store.storage),
		server.WithSessionKey(cfg.SessionKey),
		server.WithFieldPrefix(cfg.FieldPrefix),
		server.WithTransitionDelay(cfg.TransitionDelay),
	}
	if store.client != nil {
		forwarder, err := events.NewRedisForwarder(store.client, cfg.RedisPrefix+"events", logger)
		if err != nil {
			return err
		}
		options = append(options, server.WithEventHandler(forwarder.Handler()))
	}

	srv, err := server.New(options...)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("store", cfg.Store).Msg("HTTP server listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return httpServer.Close()
	}
	logger.Info().Msg("server stopped")
	return nil
}
