package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/focusloop/backend/internal/cache"
	"github.com/focusloop/backend/internal/handlers"
	"github.com/focusloop/backend/internal/middleware"
	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client, graphStore socialgraph.Store, engine *socialgraph.Engine, rdb *redis.Client) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.Session{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Optimistic counter mirror; nil Redis disables it and handlers fall
	// through to store reads
	var counterCache cache.CounterCache
	var mirror *cache.Mirror
	if rdb != nil {
		counterCache = cache.NewRedisCounterCache(rdb, 0)
		mirror = cache.NewMirror(counterCache)
	}

	// --- Initialize Repositories ---
	mongoDB := mgClient.Database("focusloop")
	userRepo := repositories.NewGraphUserRepository(graphStore)
	sessionRepo := repositories.NewPostgresSessionRepository(pgdb)
	feedRepo := repositories.NewMongoFeedRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, engine, counterCache)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(engine, userRepo, notificationRepo, mirror)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Session routes
	sessionHandler := handlers.NewSessionHandler(sessionRepo, feedRepo)
	sessionHandler.RegisterSessionRoutes(api)
	log.Println("Session routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(feedRepo, userRepo, engine)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
