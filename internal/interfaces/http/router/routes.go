package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers
type Handlers struct {
	User    *handler.UserHandler
	Contact *handler.ContactHandler
	Catalog *handler.CatalogHandler
	Basket  *handler.BasketHandler
	Order   *handler.OrderHandler
	Partner *handler.PartnerHandler
	Health  *handler.HealthHandler
}

// Guards holds the access middleware applied per route
type Guards struct {
	// Auth validates the bearer token. Required.
	Auth gin.HandlerFunc
	// AuthRateLimit throttles registration and login. Optional.
	AuthRateLimit gin.HandlerFunc
}

// APIGroups builds the versioned API route table
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	user := NewDomainGroup("user", "/user")
	user.POST("/register", g.AuthRateLimit, h.User.Register)
	user.POST("/register/confirm", h.User.ConfirmEmail)
	user.POST("/login", g.AuthRateLimit, h.User.Login)
	user.POST("/refresh", h.User.Refresh)
	user.POST("/password_reset", h.User.PasswordReset)
	user.POST("/password_reset/confirm", h.User.PasswordResetConfirm)
	user.POST("/logout", g.Auth, h.User.Logout)
	user.GET("/details", g.Auth, h.User.GetDetails)
	user.POST("/details", g.Auth, h.User.UpdateDetails)

	contact := user.Group("contact", "/contact").Use(g.Auth)
	contact.GET("", h.Contact.List)
	contact.POST("", h.Contact.Create)
	contact.PUT("", h.Contact.Update)
	contact.DELETE("", h.Contact.Delete)

	catalog := NewDomainGroup("catalog", "")
	catalog.GET("/categories", h.Catalog.ListCategories)
	catalog.GET("/shops", h.Catalog.ListShops)
	catalog.GET("/products", h.Catalog.SearchProducts)
	catalog.GET("/products/:id", g.Auth, h.Catalog.GetProduct)

	basket := NewDomainGroup("basket", "/basket").Use(g.Auth)
	basket.GET("", h.Basket.Get)
	basket.POST("", h.Basket.Add)
	basket.PUT("", h.Basket.Update)
	basket.DELETE("", h.Basket.Delete)

	order := NewDomainGroup("order", "/order").Use(g.Auth)
	order.GET("", h.Order.List)
	order.POST("", h.Order.Checkout)

	partner := NewDomainGroup("partner", "/partner").Use(g.Auth, middleware.RequireUserType(middleware.UserTypeShop))
	partner.GET("/state", h.Partner.GetState)
	partner.POST("/state", h.Partner.SetState)
	partner.GET("/orders", h.Partner.ListOrders)
	partner.POST("/update", h.Partner.UpdateFromURL)
	partner.POST("/import", h.Partner.Import)
	partner.GET("/imports", h.Partner.ImportHistory)

	return []*DomainGroup{user, catalog, basket, order, partner}
}

// RegisterAPI mounts the API route table and the unversioned probes
func RegisterAPI(engine *gin.Engine, h Handlers, g Guards, opts ...RouterOption) *Router {
	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
		engine.GET("/ready", h.Health.Ready)
	}

	r := NewRouter(engine, opts...)
	for _, group := range APIGroups(h, g) {
		r.Register(group)
	}
	r.Setup()
	return r
}
