package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/moda-backend/config"
	"github.com/ikkim/moda-backend/internal/app/controller"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/ikkim/moda-backend/internal/middleware"
	"github.com/ikkim/moda-backend/internal/router"
	"github.com/ikkim/moda-backend/internal/scheduler"
	"github.com/ikkim/moda-backend/internal/storage"
	ws "github.com/ikkim/moda-backend/internal/websocket"
	"github.com/ikkim/moda-backend/pkg/logger"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/ikkim/moda-backend/pkg/receipt"
	"github.com/ikkim/moda-backend/pkg/redis"
	"github.com/ikkim/moda-backend/pkg/tryon"
)

const shutdownTimeout = 10 * time.Second

// unavailableGenerator answers every try-on while the generator API is
// not configured.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Generate(context.Context, tryon.Request) (string, error) {
	return "", g.err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting "+cfg.Store.Name+" Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis only backs the dashboard cache and the try-on limit, so the
	// server keeps running without it.
	var (
		cache   service.Cache
		limiter service.RateLimiter
	)
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, running without cache and rate limit", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			store := redis.NewStore(redis.GetClient())
			cache = store
			limiter = store
		}
	}

	objectStorage := storage.NewS3Storage(cfg.S3)
	mail := mailer.New(cfg.SMTP)

	var generator service.TryOnGenerator
	tryOnClient, err := tryon.NewClient(tryon.Config{
		BaseURL:      cfg.TryOn.BaseURL,
		APIToken:     cfg.TryOn.APIToken,
		ModelVersion: cfg.TryOn.ModelVersion,
		PollInterval: cfg.TryOn.PollInterval,
	})
	if err != nil {
		logger.Warn("Try-on generator not configured", map[string]interface{}{
			"error": err.Error(),
		})
		generator = unavailableGenerator{err: err}
	} else {
		generator = tryOnClient
	}

	hub := ws.NewHub()
	go hub.Run()

	conn := db.GetDB()

	userRepo := repository.NewUserRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	tryOnRepo := repository.NewTryOnRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	analyticsRepo := repository.NewAnalyticsRepository(conn)

	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, objectStorage)
	cartService := service.NewCartService(cartRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)
	notifier := service.NewOrderNotifier(mail, notificationRepo, cfg.Store.Name, cfg.Notification.SendTimeout)
	orderService := service.NewOrderService(
		conn,
		orderRepo,
		addressRepo,
		notifier,
		cfg.Store.OrderNumberPrefix,
		service.WithOrderPublisher(hub),
	)
	receiptService := service.NewReceiptService(receipt.NewPDFRenderer(), cfg.Store.Name)
	paymentService := service.NewPaymentService(orderService, receiptService, mail, cfg.Notification.SendTimeout)
	tryOnService := service.NewTryOnService(
		productRepo,
		tryOnRepo,
		objectStorage,
		generator,
		limiter,
		cfg.Redis.TryOnPerMinute,
		cfg.TryOn.Timeout,
	)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cache, cfg.Redis.DashboardCacheTTL)

	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	addressController := controller.NewAddressController(addressService)
	orderController := controller.NewOrderController(orderService, receiptService)
	paymentController := controller.NewPaymentController(paymentService)
	tryOnController := controller.NewTryOnController(tryOnService)
	analyticsController := controller.NewAnalyticsController(analyticsService)
	uploadController := controller.NewUploadController(productService)
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authController,
		productController,
		cartController,
		addressController,
		orderController,
		paymentController,
		tryOnController,
		analyticsController,
		uploadController,
		wsController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	if cfg.Scheduler.Enabled {
		reports := scheduler.NewReportScheduler(
			cfg.Scheduler.ReportCronSpec,
			analyticsService,
			objectStorage,
			mail,
			cfg.SMTP.ReportRecipient,
			cfg.Store.Name,
		)
		if err := reports.Start(); err != nil {
			logger.Warn("Report scheduler disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer reports.Stop()
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
