package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/config"
	"github.com/ikkim/moda-backend/internal/app/controller"
	"github.com/ikkim/moda-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	productController   *controller.ProductController
	cartController      *controller.CartController
	addressController   *controller.AddressController
	orderController     *controller.OrderController
	paymentController   *controller.PaymentController
	tryOnController     *controller.TryOnController
	analyticsController *controller.AnalyticsController
	uploadController    *controller.UploadController
	wsController        *controller.WSController
	authMiddleware      *middleware.AuthMiddleware
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	addressController *controller.AddressController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	tryOnController *controller.TryOnController,
	analyticsController *controller.AnalyticsController,
	uploadController *controller.UploadController,
	wsController *controller.WSController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		productController:   productController,
		cartController:      cartController,
		addressController:   addressController,
		orderController:     orderController,
		paymentController:   paymentController,
		tryOnController:     tryOnController,
		analyticsController: analyticsController,
		uploadController:    uploadController,
		wsController:        wsController,
		authMiddleware:      authMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": r.config.Store.Name + " API is running",
		})
	})

	authenticate := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", authenticate, r.authController.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.POST("/:id/try-on", authenticate, r.tryOnController.Generate)
		}

		v1.POST("/try-on/events", r.authMiddleware.OptionalAuthenticate(), r.tryOnController.RecordEvent)
		v1.GET("/shipping-methods", r.orderController.ShippingMethods)

		cart := v1.Group("/cart")
		cart.Use(authenticate)
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:id", r.cartController.UpdateItem)
			cart.DELETE("/items/:id", r.cartController.RemoveItem)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(authenticate)
		{
			addresses.GET("", r.addressController.ListAddresses)
			addresses.POST("", r.addressController.CreateAddress)
			addresses.PUT("/:id", r.addressController.UpdateAddress)
			addresses.DELETE("/:id", r.addressController.DeleteAddress)
			addresses.PUT("/:id/default", r.addressController.SetDefaultAddress)
		}

		orders := v1.Group("/orders")
		orders.Use(authenticate)
		{
			orders.POST("", r.orderController.Checkout)
			orders.GET("", r.orderController.ListMyOrders)
			orders.GET("/:id", r.orderController.GetMyOrder)
			orders.GET("/:id/receipt", r.orderController.DownloadReceipt)
			orders.POST("/:id/pay", r.paymentController.ConfirmPayment)
		}

		v1.GET("/ws", authenticate, r.wsController.HandleWebSocket)

		admin := v1.Group("/admin")
		admin.Use(authenticate, r.authMiddleware.RequireStaff())
		{
			admin.GET("/products", r.productController.AdminListProducts)
			admin.GET("/products/:id", r.productController.AdminGetProduct)
			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeactivateProduct)
			admin.POST("/variants/:id/restock", r.productController.Restock)
			admin.POST("/uploads/presigned-url", r.uploadController.GeneratePresignedURL)

			admin.GET("/orders", r.orderController.AdminListOrders)
			admin.GET("/orders/:id", r.orderController.AdminGetOrder)
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)

			admin.GET("/analytics/dashboard", r.analyticsController.Dashboard)
			admin.GET("/analytics/customers", r.analyticsController.Customers)
			admin.GET("/analytics/report", r.analyticsController.Report)
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
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
