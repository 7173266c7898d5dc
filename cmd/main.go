package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"printforge/internal/analytics"
	"printforge/internal/caching"
	"printforge/internal/handlers"
	"printforge/internal/jobs/background"
	"printforge/internal/middleware"
	"printforge/internal/repositories"
	"printforge/internal/services"
	"printforge/pkg/database"
)

const version = "1.0.0"

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	objectStore, err := services.NewMinioObjectStore(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	subscriptionRepo := repositories.NewSubscriptionRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	planSvc := services.NewPlanService(cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, userRepo, planSvc)
	paymentSvc := services.NewPaymentService(paymentRepo, subscriptionRepo, userRepo)
	analyticsSvc := analytics.NewService(subscriptionRepo, paymentRepo)
	statementSvc := services.NewStatementService(analyticsSvc, objectStore)

	// Background jobs
	scheduler, err := background.NewJobScheduler(statementSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Handlers
	planHandlers := handlers.NewPlanHandlers(planSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	paymentHandlers := handlers.NewPaymentHandlers(paymentSvc)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsSvc)
	statementHandlers := handlers.NewStatementHandlers(statementSvc)

	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", handlers.ReadinessCheck(pool))

	// Protected API routes
	v1 := e.Group("/v1")
	v1.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(middleware.BillingClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}))
	v1.Use(middleware.ResolveIdentity())

	rateLimited := middleware.RateLimit(cacheSvc, 30, time.Minute)

	v1.GET("/plans", planHandlers.ListPlans)

	v1.GET("/subscriptions", subscriptionHandlers.ListSubscriptions)
	v1.GET("/subscriptions/:id", subscriptionHandlers.GetSubscriptionByID)
	v1.POST("/subscriptions", subscriptionHandlers.CreateSubscription, rateLimited)
	v1.DELETE("/subscriptions/:id/cancel", subscriptionHandlers.CancelSubscription, rateLimited)

	v1.GET("/payments", paymentHandlers.ListPayments)
	v1.POST("/payments", paymentHandlers.RecordPayment, rateLimited)
	v1.POST("/payments/:id/refund", paymentHandlers.RefundPayment, rateLimited)

	v1.GET("/analytics/summary", analyticsHandlers.GetSummaryStats)
	v1.GET("/analytics/revenue", analyticsHandlers.GetRevenueSeries)
	v1.GET("/analytics/payments", analyticsHandlers.GetPaymentSeries)
	v1.GET("/analytics/active-trend", analyticsHandlers.GetActiveTrend)
	v1.GET("/analytics/churn", analyticsHandlers.GetChurnTrend)

	v1.POST("/statements/export", statementHandlers.ExportStatement, rateLimited)

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Printforge billing server v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
