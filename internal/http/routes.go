package http

import (
	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/storefront/internal/auth/http"
	inventoryHTTP "github.com/allisson/storefront/internal/inventory/http"
	ordersHTTP "github.com/allisson/storefront/internal/orders/http"
)

// OrdersRoutes mounts the public order API.
func OrdersRoutes(orders *ordersHTTP.OrderHandler) RouteRegistrar {
	return func(v1 *gin.RouterGroup) {
		group := v1.Group("/orders")
		group.POST("", orders.PlaceOrderHandler)
		group.GET("", orders.ListHandler)
		group.GET("/:id", orders.GetHandler)
	}
}

// InventoryRoutes mounts the token endpoint and the bearer-protected product API.
// tokenRateLimit may be nil.
func InventoryRoutes(
	products *inventoryHTTP.ProductHandler,
	tokens *authHTTP.TokenHandler,
	authentication gin.HandlerFunc,
	tokenRateLimit gin.HandlerFunc,
) RouteRegistrar {
	return func(v1 *gin.RouterGroup) {
		if tokenRateLimit != nil {
			v1.POST("/token", tokenRateLimit, tokens.IssueTokenHandler)
		} else {
			v1.POST("/token", tokens.IssueTokenHandler)
		}

		group := v1.Group("/products", authentication)
		group.POST("", products.CreateHandler)
		group.GET("", products.ListHandler)
		group.GET("/:id", products.GetHandler)
		group.POST("/:id/decrement", products.DecrementHandler)
		group.POST("/:id/increment", products.IncrementHandler)
	}
}
