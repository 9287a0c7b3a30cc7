package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
	"bookstore_back_end/internal/handlers"
	"bookstore_back_end/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Orders    *handlers.OrderHandler
	Catalog   *handlers.CatalogHandler
	Cart      *handlers.CartHandler
	Community *handlers.CommunityHandler
	Health    gin.HandlerFunc
}

// Guards regroupe les middlewares construits à partir de Redis et du JWT.
type Guards struct {
	Auth          gin.HandlerFunc
	APILimit      gin.HandlerFunc
	RegisterLimit gin.HandlerFunc
	LoginLimit    gin.HandlerFunc
	Audit         func(resource string) gin.HandlerFunc
	OAuthEnabled  bool
}

// NewEngine crée le moteur Gin avec logs zap, recovery et CORS.
func NewEngine(cfg config.HTTPConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	return r
}

func Register(r *gin.Engine, h Handlers, g Guards) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api", g.APILimit)
	authed := api.Group("", g.Auth)
	admin := authed.Group("", middleware.RequireAdmin)

	// Auth
	api.POST("/auth/register", g.RegisterLimit, h.Auth.Register)
	api.POST("/auth/login", g.LoginLimit, h.Auth.Login)
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.Me)
	authed.PUT("/auth/password", h.Auth.ChangePassword)
	if g.OAuthEnabled {
		api.GET("/auth/:provider", h.Auth.BeginOAuth)
		api.GET("/auth/:provider/callback", h.Auth.OAuthCallback)
	}

	// Utilisateurs (admin)
	users := admin.Group("/users", g.Audit("user"))
	users.GET("", h.Auth.ListUsers)
	users.DELETE("/:id", h.Auth.DeleteUser)

	// Commandes
	authed.POST("/orders", h.Orders.Create)
	authed.GET("/orders", h.Orders.List)
	authed.DELETE("/orders", h.Orders.Cancel)
	admin.PATCH("/orders", h.Orders.MarkDelivered)
	authed.GET("/orders/:id", h.Orders.Get)
	authed.GET("/orders/:id/invoice", h.Orders.Invoice)
	admin.GET("/orders/:id/history", h.Orders.History)

	// Catalogue public
	api.GET("/books", h.Catalog.ListBooks)
	api.GET("/books/search", h.Catalog.SearchBooks)
	api.GET("/books/:id", h.Catalog.GetBook)
	api.GET("/books/:id/reviews", h.Community.ListReviews)
	api.GET("/authors", h.Catalog.ListAuthors)
	api.GET("/authors/:id", h.Catalog.GetAuthor)
	api.GET("/genres", h.Catalog.ListGenres)
	api.GET("/genres/:id", h.Catalog.GetGenre)
	api.GET("/announcements", h.Community.ListAnnouncements)

	// Catalogue (admin)
	books := admin.Group("/books", g.Audit("book"))
	books.POST("", h.Catalog.CreateBook)
	books.PUT("/:id", h.Catalog.UpdateBook)
	books.DELETE("/:id", h.Catalog.DeleteBook)
	books.POST("/:id/cover", h.Catalog.UploadCover)

	authors := admin.Group("/authors", g.Audit("author"))
	authors.POST("", h.Catalog.CreateAuthor)
	authors.PUT("/:id", h.Catalog.UpdateAuthor)
	authors.DELETE("/:id", h.Catalog.DeleteAuthor)

	genres := admin.Group("/genres", g.Audit("genre"))
	genres.POST("", h.Catalog.CreateGenre)
	genres.PUT("/:id", h.Catalog.UpdateGenre)
	genres.DELETE("/:id", h.Catalog.DeleteGenre)

	discounts := admin.Group("/discounts", g.Audit("discount"))
	discounts.GET("", h.Catalog.ListDiscounts)
	discounts.POST("", h.Catalog.ApplyDiscount)
	discounts.DELETE("/:id", h.Catalog.RemoveDiscount)

	admin.POST("/announcements", h.Community.CreateAnnouncement)
	admin.DELETE("/announcements/:id", h.Community.DeleteAnnouncement)

	// Avis et wishlist
	authed.POST("/books/:id/reviews", h.Community.CreateReview)
	authed.DELETE("/reviews/:id", h.Community.DeleteReview)
	authed.GET("/wishlist", h.Community.ListWishlist)
	authed.POST("/wishlist", h.Community.AddToWishlist)
	authed.DELETE("/wishlist/:bookId", h.Community.RemoveFromWishlist)

	// Panier
	cart := authed.Group("/cart")
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:bookId", h.Cart.SetQuantity)
	cart.DELETE("/items/:bookId", h.Cart.RemoveItem)
	cart.POST("/checkout", h.Cart.Checkout)
	cart.GET("/ws", h.Cart.Stream)
}
