package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/storefront/internal/app"
	"github.com/allisson/storefront/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Runnable is a long-running part of a service process. Start blocks until ctx is
// cancelled or the component fails.
type Runnable interface {
	Start(ctx context.Context) error
}

// Shutdowner is implemented by components whose Start only returns after an explicit
// stop, such as HTTP servers.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// RunOrdersServer starts the orders API, the metrics server and the outbox relay.
// Blocks until receiving SIGINT/SIGTERM or until one of them fails.
func RunOrdersServer(ctx context.Context, version string) error {
	return runService(ctx, app.ServiceOrders, version, func(container *app.Container) ([]Runnable, error) {
		server, err := container.OrdersServer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize orders server: %w", err)
		}
		relay, err := container.OutboxRelay()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize outbox relay: %w", err)
		}
		return []Runnable{server, relay}, nil
	})
}

// RunInventoryServer starts the inventory API, the metrics server and the sale worker.
// Blocks until receiving SIGINT/SIGTERM or until one of them fails.
func RunInventoryServer(ctx context.Context, version string) error {
	return runService(ctx, app.ServiceInventory, version, func(container *app.Container) ([]Runnable, error) {
		server, err := container.InventoryServer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize inventory server: %w", err)
		}
		worker, err := container.SaleWorker()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sale worker: %w", err)
		}
		return []Runnable{server, worker}, nil
	})
}

func runService(
	ctx context.Context,
	service, version string,
	build func(container *app.Container) ([]Runnable, error),
) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg, service)
	logger := container.Logger()
	logger.Info("starting service", slog.String("version", version))

	defer closeContainer(container, logger)

	// The tracer provider installs the global propagator used by every component.
	if _, err := container.TracingProvider(); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	components, err := build(container)
	if err != nil {
		return err
	}

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		components = append(components, metricsServer)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return Serve(ctx, logger, shutdownTimeout, components...)
}

// Serve runs every component until ctx is cancelled or one of them returns, then stops
// the Shutdowners within timeout. Cancellation is not an error.
func Serve(ctx context.Context, logger *slog.Logger, timeout time.Duration, components ...Runnable) error {
	g, gctx := errgroup.WithContext(ctx)
	gctx, stop := context.WithCancel(gctx)
	defer stop()

	for _, component := range components {
		g.Go(func() error {
			defer stop()
			if err := component.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		} else {
			logger.Warn("component stopped, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		var shutdownErrors []error
		for _, component := range components {
			if shutdowner, ok := component.(Shutdowner); ok {
				if err := shutdowner.Shutdown(shutdownCtx); err != nil {
					shutdownErrors = append(shutdownErrors, err)
				}
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
