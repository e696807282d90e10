package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/storefront/internal/auth/http"
	authRepository "github.com/allisson/storefront/internal/auth/repository"
	authService "github.com/allisson/storefront/internal/auth/service"
	authUseCase "github.com/allisson/storefront/internal/auth/usecase"
)

// SecretService returns the client secret hashing service.
func (c *Container) SecretService() (authService.SecretService, error) {
	c.secretServiceInit.Do(func() {
		c.secretService, c.initErrors["secretService"] = authService.NewSecretService()
	})
	return c.secretService, c.initErrors["secretService"]
}

// TokenService returns the bearer token generator.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// ClientRepository returns the client repository based on database driver.
func (c *Container) ClientRepository() (authUseCase.ClientRepository, error) {
	c.clientRepoInit.Do(func() {
		c.clientRepo, c.initErrors["clientRepo"] = c.initClientRepository()
	})
	return c.clientRepo, c.initErrors["clientRepo"]
}

// TokenRepository returns the token repository based on database driver.
func (c *Container) TokenRepository() (authUseCase.TokenRepository, error) {
	c.tokenRepoInit.Do(func() {
		c.tokenRepo, c.initErrors["tokenRepo"] = c.initTokenRepository()
	})
	return c.tokenRepo, c.initErrors["tokenRepo"]
}

// ClientUseCase returns the client use case.
func (c *Container) ClientUseCase() (authUseCase.ClientUseCase, error) {
	c.clientUseCaseInit.Do(func() {
		c.clientUseCase, c.initErrors["clientUseCase"] = c.initClientUseCase()
	})
	return c.clientUseCase, c.initErrors["clientUseCase"]
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, c.initErrors["tokenUseCase"] = c.initTokenUseCase()
	})
	return c.tokenUseCase, c.initErrors["tokenUseCase"]
}

func (c *Container) initClientRepository() (authUseCase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLClientRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLClientRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initTokenRepository() (authUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLTokenRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLTokenRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initClientUseCase() (authUseCase.ClientUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}
	secretService, err := c.SecretService()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret service for client use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for client use case: %w", err)
	}

	useCase := authUseCase.NewClientUseCase(clientRepo, secretService)
	return authUseCase.NewClientUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for token use case: %w", err)
	}
	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}
	secretService, err := c.SecretService()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret service for token use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
	}

	useCase := authUseCase.NewTokenUseCase(
		c.config.AuthTokenExpiration,
		clientRepo,
		tokenRepo,
		secretService,
		c.TokenService(),
	)
	return authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics), nil
}

// authMiddlewares builds the bearer authentication middleware and, when enabled, the
// per-IP rate limiter of the token endpoint.
func (c *Container) authMiddlewares() (authentication, tokenRateLimit gin.HandlerFunc, err error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get token use case for auth middleware: %w", err)
	}

	authentication = authHTTP.AuthenticationMiddleware(tokenUseCase, c.TokenService(), c.Logger())
	if c.config.RateLimitTokenEnabled {
		tokenRateLimit = authHTTP.TokenRateLimitMiddleware(
			c.ctx,
			c.config.RateLimitTokenRequestsPerSec,
			c.config.RateLimitTokenBurst,
			c.Logger(),
		)
	}
	return authentication, tokenRateLimit, nil
}
