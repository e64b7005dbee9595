package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// WithSignal returns a context that is canceled on the first SIGINT or
// SIGTERM. A second signal exits the process without waiting for shutdown.
func WithSignal(ctx context.Context, l *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			l.Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
			return
		}
		if sig, ok := <-sigCh; ok {
			l.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
