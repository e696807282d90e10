package app

import (
	"fmt"

	authHTTP "github.com/allisson/storefront/internal/auth/http"
	"github.com/allisson/storefront/internal/http"
	inventoryHTTP "github.com/allisson/storefront/internal/inventory/http"
	inventoryRepository "github.com/allisson/storefront/internal/inventory/repository"
	inventoryUseCase "github.com/allisson/storefront/internal/inventory/usecase"
)

// ProductRepository returns the product repository based on database driver.
func (c *Container) ProductRepository() (inventoryUseCase.ProductRepository, error) {
	c.productRepoInit.Do(func() {
		c.productRepo, c.initErrors["productRepo"] = c.initProductRepository()
	})
	return c.productRepo, c.initErrors["productRepo"]
}

// ProcessedOrderRepository returns the processed order repository based on database driver.
func (c *Container) ProcessedOrderRepository() (inventoryUseCase.ProcessedOrderRepository, error) {
	c.processedOrderRepoInit.Do(func() {
		c.processedOrderRepo, c.initErrors["processedOrderRepo"] = c.initProcessedOrderRepository()
	})
	return c.processedOrderRepo, c.initErrors["processedOrderRepo"]
}

// ProductUseCase returns the product use case.
func (c *Container) ProductUseCase() (inventoryUseCase.ProductUseCase, error) {
	c.productUseCaseInit.Do(func() {
		c.productUseCase, c.initErrors["productUseCase"] = c.initProductUseCase()
	})
	return c.productUseCase, c.initErrors["productUseCase"]
}

// SaleConsumer returns the idempotent sale.completed consumer.
func (c *Container) SaleConsumer() (*inventoryUseCase.SaleConsumer, error) {
	c.saleConsumerInit.Do(func() {
		c.saleConsumer, c.initErrors["saleConsumer"] = c.initSaleConsumer()
	})
	return c.saleConsumer, c.initErrors["saleConsumer"]
}

// SaleWorker returns the worker that feeds channel messages to the sale consumer.
func (c *Container) SaleWorker() (*inventoryUseCase.SaleWorker, error) {
	c.saleWorkerInit.Do(func() {
		c.saleWorker, c.initErrors["saleWorker"] = c.initSaleWorker()
	})
	return c.saleWorker, c.initErrors["saleWorker"]
}

// InventoryServer returns the HTTP server of the inventory service.
func (c *Container) InventoryServer() (*http.Server, error) {
	c.inventoryServerInit.Do(func() {
		c.inventoryServer, c.initErrors["inventoryServer"] = c.initInventoryServer()
	})
	return c.inventoryServer, c.initErrors["inventoryServer"]
}

func (c *Container) initProductRepository() (inventoryUseCase.ProductRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for product repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return inventoryRepository.NewMySQLProductRepository(db), nil
	case "postgres":
		return inventoryRepository.NewPostgreSQLProductRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initProcessedOrderRepository() (inventoryUseCase.ProcessedOrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for processed order repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return inventoryRepository.NewMySQLProcessedOrderRepository(db), nil
	case "postgres":
		return inventoryRepository.NewPostgreSQLProcessedOrderRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initProductUseCase() (inventoryUseCase.ProductUseCase, error) {
	productRepo, err := c.ProductRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get product repository for product use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for product use case: %w", err)
	}

	useCase := inventoryUseCase.NewProductUseCase(productRepo)
	return inventoryUseCase.NewProductUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initSaleConsumer() (*inventoryUseCase.SaleConsumer, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for sale consumer: %w", err)
	}
	productRepo, err := c.ProductRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get product repository for sale consumer: %w", err)
	}
	processedOrderRepo, err := c.ProcessedOrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get processed order repository for sale consumer: %w", err)
	}

	return inventoryUseCase.NewSaleConsumer(
		inventoryUseCase.SaleConsumerConfig{ApplyStock: c.config.SaleConsumerApplyStock},
		txManager,
		productRepo,
		processedOrderRepo,
		c.Logger(),
	), nil
}

func (c *Container) initSaleWorker() (*inventoryUseCase.SaleWorker, error) {
	subscriber, err := c.Subscriber()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber for sale worker: %w", err)
	}
	consumer, err := c.SaleConsumer()
	if err != nil {
		return nil, fmt.Errorf("failed to get sale consumer for sale worker: %w", err)
	}
	return inventoryUseCase.NewSaleWorker(subscriber, consumer, c.Logger()), nil
}

func (c *Container) initInventoryServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for inventory server: %w", err)
	}
	productUseCase, err := c.ProductUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get product use case for inventory server: %w", err)
	}
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for inventory server: %w", err)
	}
	authentication, tokenRateLimit, err := c.authMiddlewares()
	if err != nil {
		return nil, err
	}
	opts, err := c.routerOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to get router options for inventory server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(opts, http.InventoryRoutes(
		inventoryHTTP.NewProductHandler(productUseCase, logger),
		authHTTP.NewTokenHandler(tokenUseCase, logger),
		authentication,
		tokenRateLimit,
	))
	return server, nil
}
