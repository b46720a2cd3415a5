package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/farmatrack/farmatrack-backend/internal/stock/cache"
	"github.com/farmatrack/farmatrack-backend/internal/stock/events"
	"github.com/farmatrack/farmatrack-backend/internal/stock/handler"
	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/config"
	"github.com/farmatrack/farmatrack-backend/pkg/database"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
	"github.com/farmatrack/farmatrack-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("stock-service", cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ when configured; the service runs without event
	// publishing otherwise.
	var publisher *events.StockEventPublisher
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewStockEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Warn().Msg("RabbitMQ not configured, event publishing disabled")
	}

	// Connect to Redis when configured; scans hit the database directly
	// otherwise.
	var productCache *cache.ProductCache
	if cfg.Redis.Addr != "" {
		productCache, err = cache.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer productCache.Close()
	} else {
		log.Warn().Msg("Redis not configured, product caching disabled")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	lotRepo := repository.NewLotRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// Initialize service
	stockService := service.NewStockService(db, productRepo, lotRepo, movementRepo, publisher, productCache, log)

	// Initialize handlers
	productHandler := handler.NewProductHandler(stockService, log)
	lotHandler := handler.NewLotHandler(stockService, log)
	scanHandler := handler.NewScanHandler(stockService, log)
	movementHandler := handler.NewMovementHandler(stockService, log)
	reportHandler := handler.NewReportHandler(stockService, log)

	// Rate limiter for the public scan endpoints
	rateLimiter := httputil.NewRateLimiter(10, 20)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go rateLimiter.StartCleanupLoop(stopCleanup)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "stock-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		if productCache != nil {
			health["redis"] = productCache.Health(r.Context())
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
			r.Get("/{id}/lots", productHandler.ListLots)
			r.Post("/{id}/issue-fefo", productHandler.IssueFEFO)
		})

		// Lot routes
		r.Route("/lots", func(r chi.Router) {
			r.Get("/", lotHandler.List)
			r.Post("/", lotHandler.Create)
			r.Get("/{id}", lotHandler.Get)
			r.Delete("/{id}", lotHandler.Delete)
			r.Get("/{id}/movements", lotHandler.ListMovements)
			r.Post("/{id}/movements", lotHandler.ApplyMovement)
		})

		// Scan routes (rate limited, they face handheld devices)
		r.Route("/scan", func(r chi.Router) {
			r.Use(rateLimiter.Middleware)
			r.Post("/ingress", scanHandler.Ingress)
			r.Get("/{code}", scanHandler.Lookup)
		})

		// Movement log
		r.Get("/movements", movementHandler.List)

		// Reports
		r.Get("/reports/expiring", reportHandler.Expiring)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
