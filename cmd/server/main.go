package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/config"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/auth"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/gateway"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest/handlers"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest/middleware"
	"github.com/bookcourier/book-courier-api/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting book courier service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	orderRepo := postgres.NewOrderRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	bookRepo := postgres.NewBookRepository(db)
	userRepo := postgres.NewUserRepository(db)
	txCoordinator := postgres.NewTransactionCoordinator(db)

	gatewayClient := gateway.NewGatewayClient(cfg.Gateway)
	retryGateway := gateway.NewRetryGatewayClient(gatewayClient, cfg.Retry)

	verifier, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		logger.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	confirmService := services.NewConfirmService(orderRepo, paymentRepo, retryGateway, txCoordinator, logger)
	checkoutService := services.NewCheckoutService(orderRepo, retryGateway, logger)
	orderService := services.NewOrderService(orderRepo, logger)
	bookService := services.NewBookService(bookRepo, orderRepo, logger)
	userService := services.NewUserService(userRepo, logger)

	authMiddleware := middleware.Auth(verifier, logger)

	mux := http.NewServeMux()
	handlers.NewPaymentHandler(confirmService, checkoutService, logger).RegisterRoutes(mux)
	handlers.NewOrderHandler(orderService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewBookHandler(bookService, logger).RegisterRoutes(mux)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(db.Pool, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Metrics(mux)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewReconciler(
		orderRepo,
		confirmService,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		cfg.Worker.MinAge,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
