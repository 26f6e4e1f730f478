package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/config"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/handlers"
	"github.com/swiftrail/reservation-backend/internal/middleware"
	"github.com/swiftrail/reservation-backend/internal/services"
	"github.com/swiftrail/reservation-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SwiftRail Reservation Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	trainRepo := database.NewTrainRepository(db)
	stationRepo := database.NewStationRepository(db)
	routeRepo := database.NewRouteRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	passengerRepo := database.NewPassengerRepository(db)
	paymentRepo := database.NewPaymentRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	pnrGenerator := services.NewPNRGenerator(bookingRepo, cfg.Booking.PNRMaxAttempts, logger)
	inventoryService := services.NewInventoryService(trainRepo, bookingRepo, logger)
	bookingService := services.NewBookingService(
		trainRepo,
		bookingRepo,
		passengerRepo,
		routeRepo,
		userRepo,
		pnrGenerator,
		cfg.Booking.HoldTTL,
		logger,
	)
	stripeService := services.NewStripeService(&cfg.Payment, logger)
	paymentService := services.NewPaymentService(bookingRepo, paymentRepo, stripeService, logger)

	// Background sweeper that releases lapsed seat holds
	holdExpiration := services.NewHoldExpirationService(bookingRepo, cfg.Booking.ExpirationInterval, logger)
	holdExpiration.Start()
	logger.Info("Hold expiration service started")

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService, cfg.Security.BcryptCost, logger)
	trainHandler := handlers.NewTrainHandler(trainRepo, logger)
	stationHandler := handlers.NewStationHandler(stationRepo, logger)
	routeHandler := handlers.NewRouteHandler(routeRepo, trainRepo, stationRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, inventoryService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	registerRoutes(router, jwtService,
		authHandler, trainHandler, stationHandler, routeHandler, bookingHandler, paymentHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	holdExpiration.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// registerRoutes wires the API surface onto the router.
func registerRoutes(
	router *gin.Engine,
	jwtService *jwt.Service,
	authHandler *handlers.AuthHandler,
	trainHandler *handlers.TrainHandler,
	stationHandler *handlers.StationHandler,
	routeHandler *handlers.RouteHandler,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
) {
	api := router.Group("/api")
	{
		// User routes
		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)

			usersProtected := users.Group("")
			usersProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				usersProtected.GET("/profile", authHandler.GetProfile)
				usersProtected.POST("/logout", authHandler.Logout)
			}
		}

		// Train catalogue routes
		trains := api.Group("/trains")
		trains.Use(middleware.AuthMiddleware(jwtService))
		{
			trains.GET("", trainHandler.ListTrains)
			trains.GET("/:id", trainHandler.GetTrain)
			trains.POST("", middleware.RequireAdmin(), trainHandler.CreateTrain)
		}

		// Station routes
		stations := api.Group("/stations")
		stations.Use(middleware.AuthMiddleware(jwtService))
		{
			stations.POST("", middleware.RequireAdmin(), stationHandler.CreateStation)
		}

		// Route (schedule) routes
		routes := api.Group("/routes")
		routes.Use(middleware.AuthMiddleware(jwtService))
		{
			routes.GET("/train/:trainId", routeHandler.GetTrainSchedule)
			routes.POST("", middleware.RequireAdmin(), routeHandler.CreateRoute)
		}

		// Booking routes. Availability and PNR lookup are public so
		// anyone holding a PNR can query; everything else needs the
		// caller's identity.
		bookings := api.Group("/bookings")
		{
			bookings.GET("/availability", bookingHandler.CheckAvailability)
			bookings.GET("/pnr/:pnr", bookingHandler.GetBookingByPNR)

			bookingsProtected := bookings.Group("")
			bookingsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				bookingsProtected.POST("", bookingHandler.CreateBooking)
				bookingsProtected.GET("/mybookings", bookingHandler.GetMyBookings)
				bookingsProtected.PUT("/cancel/:id", bookingHandler.CancelBooking)
			}
		}

		// Payment routes. The webhook is authenticated by signature, not JWT.
		payments := api.Group("/payments")
		{
			payments.POST("/webhook", paymentHandler.HandleWebhook)

			paymentsProtected := payments.Group("")
			paymentsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				paymentsProtected.POST("/order", paymentHandler.CreateOrder)
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
