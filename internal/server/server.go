// Package server runs the storefront process: HTTP API, gRPC health,
// websocket hub, queue workers and the scheduler, until a signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/rpc"
)

const shutdownTimeout = 10 * time.Second

// Options tune what the serve process runs alongside the API.
type Options struct {
	// Workers is the number of in-process queue workers. Zero disables
	// them, which only makes sense with the redis driver and a separate
	// queue:work process.
	Workers int
	// Scheduler runs the periodic tasks in this process.
	Scheduler bool
}

// Start boots the kernel and blocks until SIGINT/SIGTERM.
func Start(opts Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	k, err := kernel.Boot(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	return Run(ctx, k, opts)
}

// Run serves until ctx ends, then drains in order: stop accepting HTTP,
// stop background loops, wait for them.
func Run(ctx context.Context, k *kernel.Kernel, opts Options) error {
	handler, err := k.Handler()
	if err != nil {
		return fmt.Errorf("server: build handler: %w", err)
	}

	lis, err := rpc.Listen(config.GRPCPort())
	if err != nil {
		return err
	}

	bgCtx, cancelBg := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	background := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(bgCtx)
			logger.Debug("server: background loop stopped", "loop", name)
		}()
	}

	background("ws-hub", k.Hub.Run)
	background("rate-limit-sweep", k.Limiter.Sweep)
	background("grpc", func(ctx context.Context) {
		if err := rpc.New(k.Ping).Serve(ctx, lis); err != nil {
			logger.Error("gRPC server failed", "error", err)
		}
	})
	if opts.Workers > 0 {
		background("queue", func(ctx context.Context) { k.RunWorkers(ctx, opts.Workers) })
	}
	if opts.Scheduler {
		background("scheduler", k.Scheduler.Start)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}

	cancelBg()
	wg.Wait()
	logger.Info("all servers stopped")
	return serveErr
}
