package app

import (
	"fmt"
	nethttp "net/http"

	"github.com/allisson/storefront/internal/http"
	ordersHTTP "github.com/allisson/storefront/internal/orders/http"
	ordersRepository "github.com/allisson/storefront/internal/orders/repository"
	ordersService "github.com/allisson/storefront/internal/orders/service"
	ordersUseCase "github.com/allisson/storefront/internal/orders/usecase"
	outboxRepository "github.com/allisson/storefront/internal/outbox/repository"
	outboxUseCase "github.com/allisson/storefront/internal/outbox/usecase"
)

// OrderRepository returns the order repository based on database driver.
func (c *Container) OrderRepository() (ordersUseCase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		c.orderRepo, c.initErrors["orderRepo"] = c.initOrderRepository()
	})
	return c.orderRepo, c.initErrors["orderRepo"]
}

// OutboxRepository returns the outbox repository based on database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxRepository, error) {
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, c.initErrors["outboxRepo"] = c.initOutboxRepository()
	})
	return c.outboxRepo, c.initErrors["outboxRepo"]
}

// InventoryClient returns the authenticated client of the remote inventory API.
func (c *Container) InventoryClient() (ordersUseCase.InventoryClient, error) {
	c.inventoryClientInit.Do(func() {
		c.inventoryClient, c.initErrors["inventoryClient"] = c.initInventoryClient()
	})
	return c.inventoryClient, c.initErrors["inventoryClient"]
}

// OrderUseCase returns the order placement saga.
func (c *Container) OrderUseCase() (ordersUseCase.OrderUseCase, error) {
	c.orderUseCaseInit.Do(func() {
		c.orderUseCase, c.initErrors["orderUseCase"] = c.initOrderUseCase()
	})
	return c.orderUseCase, c.initErrors["orderUseCase"]
}

// OutboxRelay returns the relay moving outbox messages to the message channel.
func (c *Container) OutboxRelay() (*outboxUseCase.Relay, error) {
	c.outboxRelayInit.Do(func() {
		c.outboxRelay, c.initErrors["outboxRelay"] = c.initOutboxRelay()
	})
	return c.outboxRelay, c.initErrors["outboxRelay"]
}

// OrdersServer returns the HTTP server of the orders service.
func (c *Container) OrdersServer() (*http.Server, error) {
	c.ordersServerInit.Do(func() {
		c.ordersServer, c.initErrors["ordersServer"] = c.initOrdersServer()
	})
	return c.ordersServer, c.initErrors["ordersServer"]
}

func (c *Container) initOrderRepository() (ordersUseCase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return ordersRepository.NewMySQLOrderRepository(db), nil
	case "postgres":
		return ordersRepository.NewPostgreSQLOrderRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initOutboxRepository() (outboxUseCase.OutboxRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initInventoryClient() (ordersUseCase.InventoryClient, error) {
	if c.config.InventoryBaseURL == "" {
		return nil, fmt.Errorf("inventory base url is not configured")
	}

	// Per-call deadlines come from InventoryCallTimeout; the transport itself has none.
	httpClient := &nethttp.Client{}
	tokens := ordersService.NewClientCredentialsTokenSource(
		c.config.InventoryBaseURL,
		c.config.InventoryClientID,
		c.config.InventoryClientSecret,
		httpClient,
		c.config.InventoryCallTimeout,
	)
	return ordersService.NewHTTPInventoryClient(
		c.config.InventoryBaseURL,
		httpClient,
		tokens,
		c.config.InventoryCallTimeout,
	), nil
}

func (c *Container) initOrderUseCase() (ordersUseCase.OrderUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
	}
	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for order use case: %w", err)
	}
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for order use case: %w", err)
	}
	inventoryClient, err := c.InventoryClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory client for order use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for order use case: %w", err)
	}

	useCase := ordersUseCase.NewOrderUseCase(
		txManager,
		orderRepo,
		outboxRepo,
		inventoryClient,
		businessMetrics,
		c.Logger(),
	)
	return ordersUseCase.NewOrderUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initOutboxRelay() (*outboxUseCase.Relay, error) {
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox relay: %w", err)
	}
	publisher, err := c.Publisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get publisher for outbox relay: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for outbox relay: %w", err)
	}

	return outboxUseCase.NewRelay(
		outboxUseCase.Config{
			Interval:  c.config.OutboxInterval,
			BatchSize: c.config.OutboxBatchSize,
		},
		outboxRepo,
		outboxUseCase.NewChannelPublisher(publisher, c.Logger()),
		businessMetrics,
		c.Logger(),
	), nil
}

func (c *Container) initOrdersServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for orders server: %w", err)
	}
	orderUseCase, err := c.OrderUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get order use case for orders server: %w", err)
	}
	opts, err := c.routerOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to get router options for orders server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(opts, http.OrdersRoutes(ordersHTTP.NewOrderHandler(orderUseCase, logger)))
	return server, nil
}
