package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopsmith/storefront-backend/config"
	"github.com/shopsmith/storefront-backend/internal/app/controller"
	"github.com/shopsmith/storefront-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	paymentController  *controller.PaymentController
	customerController *controller.CustomerController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	customerController *controller.CustomerController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		orderController:    orderController,
		paymentController:  paymentController,
		customerController: customerController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		products := api.Group("/products")
		{
			products.GET("", r.productController.List)
			products.GET("/search", r.productController.Search)
			products.GET("/:id", r.productController.GetByID)
			products.PUT("/:id/quantity",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.SetQuantity)
		}

		// The cart surface is anonymous-friendly: identity travels in the
		// body or query, matching clients without an account
		cart := api.Group("/cart")
		{
			cart.POST("", r.cartController.CreateCart)
			cart.GET("/user/:userId", r.cartController.GetUserCart)
			cart.POST("/user/:userId", r.cartController.MergeCart)
			cart.GET("/:cartId", r.cartController.GetCart)
			cart.PUT("/:cartId/user", r.cartController.BindOwner)
			cart.POST("/:cartId/items", r.cartController.AddItem)
			cart.PUT("/:cartId/items/:productId", r.cartController.UpdateItem)
			cart.DELETE("/:cartId/items/:productId", r.cartController.RemoveItem)
		}

		orders := api.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("", r.orderController.PlaceOrder)
			orders.GET("", r.orderController.ListMyOrders)
			orders.GET("/history",
				r.authMiddleware.RequireRole("admin"),
				r.orderController.History)
			orders.GET("/history/export",
				r.authMiddleware.RequireRole("admin"),
				r.orderController.ExportHistory)
			orders.GET("/:orderId", r.orderController.GetOrder)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/validate", r.paymentController.Validate)
		}

		users := api.Group("/users")
		users.Use(r.authMiddleware.Authenticate())
		{
			users.POST("/:id/credit-cards", r.authController.AddCard)
			users.DELETE("/:id/credit-cards/:cardId", r.authController.RemoveCard)
		}

		customers := api.Group("/customers")
		customers.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			customers.GET("", r.customerController.List)
			customers.GET("/:id", r.customerController.Get)
			customers.PUT("/:id", r.customerController.Update)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
