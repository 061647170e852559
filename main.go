package main

import (
	"log"

	"vidquiz/config"
	"vidquiz/handlers"
	"vidquiz/middleware"
	"vidquiz/models"
	"vidquiz/routes"
	"vidquiz/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis (refresh-token blacklist)
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, redisClient, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	quizService := services.NewQuizService(db)
	generatorService, err := services.NewGeneratorService(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("Failed to initialize quiz generator:", err)
	}
	if !generatorService.Configured() {
		log.Printf("GEMINI_API_KEY is not set; quiz generation will fail until it is configured")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService, generatorService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, quizHandler, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
