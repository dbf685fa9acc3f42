package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/goshop/storefront/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	AccountHandler *AccountHTTP
	CatalogHandler *CatalogHTTP
	OrderHandler   *OrderHTTP
	SearchHandler  *SearchHTTP
	Auth           *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/register", d.AccountHandler.Register)
	users.POST("/login", d.AccountHandler.Login)
	users.POST("/logout", d.AccountHandler.Logout)
	users.PUT("/profile", d.AccountHandler.UpdateProfile, d.Auth.Protect)
	users.GET("", d.AccountHandler.ListUsers, d.Auth.Protect, d.Auth.Admin)
	users.DELETE("/:id", d.AccountHandler.DeleteUser, d.Auth.Protect, d.Auth.Admin)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/featured", d.CatalogHandler.GetFeatured)
	products.GET("/categories", d.CatalogHandler.GetCategories)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, d.Auth.Protect, d.Auth.Admin)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, d.Auth.Protect, d.Auth.Admin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, d.Auth.Protect, d.Auth.Admin)
	products.POST("/:id/reviews", d.CatalogHandler.AddReview, d.Auth.Protect)

	orders := api.Group("/orders", d.Auth.Protect)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/my", d.OrderHandler.GetMyOrders)
	orders.GET("", d.OrderHandler.GetOrders, d.Auth.Admin)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/pay", d.OrderHandler.PayOrder)
	orders.PUT("/:id/status", d.OrderHandler.SetOrderStatus, d.Auth.Admin)
}
