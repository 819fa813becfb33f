package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"cylinder-backend/internal/cache"
	"cylinder-backend/internal/config"
	"cylinder-backend/internal/database"
	"cylinder-backend/internal/db"
	"cylinder-backend/internal/handlers"
	"cylinder-backend/internal/health"
	h "cylinder-backend/internal/http"
	"cylinder-backend/internal/middleware"
	"cylinder-backend/internal/repositories"
	"cylinder-backend/internal/services"
	"cylinder-backend/internal/store/postgres"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis cache (optional - graceful fallback if unavailable)
	redisCache := cache.Disabled()
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.New(cfg.RedisAddr(), cfg.Redis.Password)
		if err != nil {
			log.Printf("[Redis] Cache unavailable: %v (reads fall through to postgres)", err)
		} else {
			log.Println("[Redis] Cache connected successfully")
		}
	}
	defer redisCache.Close()

	// Run database migrations on startup
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Ledger store: every multi-record mutation goes through this
	ledgerStore := postgres.New(pool)

	// Repositories (read side)
	customerRepo := repositories.NewCustomerRepository(pool)
	vehicleRepo := repositories.NewVehicleRepository(pool)
	saleRepo := repositories.NewSaleRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	cylinderRepo := repositories.NewCylinderRepository(pool)
	dashboardRepo := repositories.NewDashboardRepository(pool)

	// Services
	customerService := services.NewCustomerService(ledgerStore, customerRepo, saleRepo, paymentRepo, redisCache)
	vehicleService := services.NewVehicleService(ledgerStore, vehicleRepo)
	saleService := services.NewSaleService(ledgerStore, saleRepo, redisCache)
	paymentService := services.NewPaymentService(ledgerStore, paymentRepo, redisCache)
	cylinderService := services.NewCylinderService(ledgerStore, cylinderRepo, redisCache)
	receiptService := services.NewReceiptService(paymentRepo, customerRepo)
	dashboardService := services.NewDashboardService(dashboardRepo, redisCache)

	// Handlers
	customerHandler := handlers.NewCustomerHandler(customerService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	saleHandler := handlers.NewSaleHandler(saleService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, receiptService)
	cylinderHandler := handlers.NewCylinderHandler(cylinderService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool, redisCache))

	router := h.NewRouter(customerHandler, vehicleHandler, saleHandler,
		paymentHandler, cylinderHandler, dashboardHandler, healthHandler)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
