// Package bootstrap runs the server until it stops or the process is asked to exit.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// App manages application lifecycle with graceful shutdown support.
type App struct {
	mu              sync.Mutex
	hooks           []func(ctx context.Context) error
	shutdownTimeout time.Duration
	signals         []os.Signal
}

type Option func(*App)

// WithShutdownTimeout bounds how long all shutdown hooks together may take.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(a *App) {
		a.shutdownTimeout = timeout
	}
}

func New(opts ...Option) *App {
	app := &App{
		shutdownTimeout: defaultShutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// AddShutdownHook registers a function to call during graceful shutdown.
// Hooks run in reverse order (LIFO). Thread-safe.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run executes run until it returns or a termination signal arrives.
// On a signal, registered shutdown hooks are called in LIFO order.
// If run returns an error before a signal, that error is returned.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, a.signals...)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Default().Info("shutting down", slog.Duration("timeout", a.shutdownTimeout))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancelShutdown()
		return a.shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		if err := a.hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
