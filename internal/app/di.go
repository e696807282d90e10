// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authService "github.com/allisson/storefront/internal/auth/service"
	authUseCase "github.com/allisson/storefront/internal/auth/usecase"
	"github.com/allisson/storefront/internal/config"
	"github.com/allisson/storefront/internal/database"
	"github.com/allisson/storefront/internal/http"
	inventoryUseCase "github.com/allisson/storefront/internal/inventory/usecase"
	"github.com/allisson/storefront/internal/messaging"
	"github.com/allisson/storefront/internal/metrics"
	ordersUseCase "github.com/allisson/storefront/internal/orders/usecase"
	outboxUseCase "github.com/allisson/storefront/internal/outbox/usecase"
	"github.com/allisson/storefront/internal/tracing"
)

// Service names used for metrics, tracing and logging.
const (
	ServiceOrders    = "orders"
	ServiceInventory = "inventory"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
// One container serves one process, which runs either the orders or the inventory service.
type Container struct {
	// Configuration
	config  *config.Config
	service string

	// Lifetime of background helpers (rate limiter sweeper)
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	tracingProvider *tracing.Provider
	publisher       messaging.Publisher
	subscriber      messaging.Subscriber

	// Managers
	txManager database.TxManager

	// Auth
	secretService authService.SecretService
	tokenService  authService.TokenService
	clientRepo    authUseCase.ClientRepository
	tokenRepo     authUseCase.TokenRepository
	clientUseCase authUseCase.ClientUseCase
	tokenUseCase  authUseCase.TokenUseCase

	// Inventory
	productRepo        inventoryUseCase.ProductRepository
	processedOrderRepo inventoryUseCase.ProcessedOrderRepository
	productUseCase     inventoryUseCase.ProductUseCase
	saleConsumer       *inventoryUseCase.SaleConsumer

	// Orders
	orderRepo       ordersUseCase.OrderRepository
	outboxRepo      outboxUseCase.OutboxRepository
	inventoryClient ordersUseCase.InventoryClient
	orderUseCase    ordersUseCase.OrderUseCase

	// Servers and Workers
	ordersServer    *http.Server
	inventoryServer *http.Server
	metricsServer   *http.MetricsServer
	outboxRelay     *outboxUseCase.Relay
	saleWorker      *inventoryUseCase.SaleWorker

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	txManagerInit          sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	tracingProviderInit    sync.Once
	publisherInit          sync.Once
	subscriberInit         sync.Once
	secretServiceInit      sync.Once
	tokenServiceInit       sync.Once
	clientRepoInit         sync.Once
	tokenRepoInit          sync.Once
	clientUseCaseInit      sync.Once
	tokenUseCaseInit       sync.Once
	productRepoInit        sync.Once
	processedOrderRepoInit sync.Once
	productUseCaseInit     sync.Once
	saleConsumerInit       sync.Once
	orderRepoInit          sync.Once
	outboxRepoInit         sync.Once
	inventoryClientInit    sync.Once
	orderUseCaseInit       sync.Once
	ordersServerInit       sync.Once
	inventoryServerInit    sync.Once
	metricsServerInit      sync.Once
	outboxRelayInit        sync.Once
	saleWorkerInit         sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container for service.
func NewContainer(cfg *config.Config, service string) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		service:    service,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// ServiceName returns the service.name reported to metrics and traces.
func (c *Container) ServiceName() string {
	if c.config.TracingServiceName != "" {
		return c.config.TracingServiceName
	}
	return c.service
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		c.db, c.initErrors["db"] = c.initDB()
	})
	return c.db, c.initErrors["db"]
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		c.txManager, c.initErrors["txManager"] = c.initTxManager()
	})
	return c.txManager, c.initErrors["txManager"]
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics
// are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, c.initErrors["metricsProvider"] = metrics.NewProvider(c.ServiceName())
	})
	return c.metricsProvider, c.initErrors["metricsProvider"]
}

// BusinessMetrics returns the domain metrics recorder. It is a no-op when metrics are
// disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, c.initErrors["businessMetrics"] = c.initBusinessMetrics()
	})
	return c.businessMetrics, c.initErrors["businessMetrics"]
}

// TracingProvider returns the tracer provider. It is installed as the global provider
// on first access.
func (c *Container) TracingProvider() (*tracing.Provider, error) {
	c.tracingProviderInit.Do(func() {
		c.tracingProvider, c.initErrors["tracingProvider"] = tracing.NewProvider(c.ctx, tracing.Config{
			Enabled:     c.config.TracingEnabled,
			Endpoint:    c.config.TracingEndpoint,
			Insecure:    c.config.TracingInsecure,
			ServiceName: c.ServiceName(),
		})
	})
	return c.tracingProvider, c.initErrors["tracingProvider"]
}

// MetricsServer returns the HTTP server exposing /metrics.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		c.metricsServer, c.initErrors["metricsServer"] = c.initMetricsServer()
	})
	return c.metricsServer, c.initErrors["metricsServer"]
}

// Shutdown performs cleanup of all initialized resources.
// Servers stop first, then message channels, telemetry and finally the database.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.ordersServer != nil {
		if err := c.ordersServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("orders server shutdown: %w", err))
		}
	}
	if c.inventoryServer != nil {
		if err := c.inventoryServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("inventory server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	c.cancel()

	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("subscriber close: %w", err))
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("publisher close: %w", err))
		}
	}

	if c.tracingProvider != nil {
		if err := c.tracingProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("tracing provider shutdown: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler).With(slog.String("service", c.service))
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// routerOptions are shared by the orders and inventory servers.
func (c *Container) routerOptions() (http.RouterOptions, error) {
	opts := http.RouterOptions{
		ServiceName:      c.ServiceName(),
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		MetricsNamespace: c.config.MetricsNamespace,
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return opts, err
	}
	if provider != nil {
		opts.MeterProvider = provider.MeterProvider()
	}
	return opts, nil
}

// unsupportedDriver is returned by every repository factory for an unknown DB_DRIVER.
func (c *Container) unsupportedDriver() error {
	return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
}
