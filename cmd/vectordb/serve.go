package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectordb/internal/fakeserver"
)

// runServeFake serves the in-memory implementation until ctx is cancelled.
func runServeFake(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve-fake", flag.ContinueOnError)
	port := fs.Int("port", a.cfg.Fake.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srvImpl := fakeserver.New(
		fakeserver.WithLogger(a.logger),
		fakeserver.WithAPIKeys(a.cfg.Fake.APIKeys...),
		fakeserver.WithRegistry(a.reg),
	)

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvImpl.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting fake vectordb server",
			zap.String("addr", addr),
			zap.Bool("auth", len(a.cfg.Fake.APIKeys) > 0),
		)
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
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Fake.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
