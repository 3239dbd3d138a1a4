package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/susumutomita/LabQuiz/internal/config"
	"github.com/susumutomita/LabQuiz/internal/database"
	"github.com/susumutomita/LabQuiz/internal/handlers"
	"github.com/susumutomita/LabQuiz/internal/logger"
	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/services"
	"github.com/susumutomita/LabQuiz/internal/store"

	_ "github.com/susumutomita/LabQuiz/docs"
)

// @title           LabQuiz API
// @version         1.0
// @description     Lab-safety training: quiz and scenario sessions, content review, progress dashboard
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var st store.Store
	switch cfg.StoreDriver {
	case "memory":
		st = store.NewMemory()
	default:
		db := database.Connect(cfg, log)
		database.AutoMigrate(db, log)
		st = store.NewGorm(db)
	}

	if err := database.Seed(ctx, st, cfg, log); err != nil {
		log.Fatal("seed failed", "error", err)
	}
	if cfg.StoreDriver == "memory" {
		if err := database.SeedDemo(ctx, st, log); err != nil {
			log.Fatal("demo seed failed", "error", err)
		}
	}

	authService := services.NewAuthService(st, cfg.JWTSecret)
	sessionService := services.NewSessionService(st, log)
	reviewService := services.NewReviewService(st)
	progressService := services.NewProgressService(st)
	userService := services.NewUserService(st)
	aiService := services.NewAIGenerateService(st, cfg.OpenAIKey, cfg.OpenAIURL, cfg.OpenAIModel)

	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(sessionService)
	quizHandler := handlers.NewQuizHandler(sessionService)
	scenarioHandler := handlers.NewScenarioHandler(sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	dashboardHandler := handlers.NewDashboardHandler(progressService)
	userHandler := handlers.NewUserHandler(userService)
	aiHandler := handlers.NewAIGenerateHandler(aiService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/api/auth/login", authHandler.Login)

	authed := r.Group("/api")
	authed.Use(middleware.JWTAuth(authService))
	{
		authed.GET("/categories", categoryHandler.ListCategories)

		authed.GET("/quizzes", quizHandler.StartSession)
		authed.POST("/quizzes/:id/answer", quizHandler.SubmitAnswer)
		authed.GET("/scenarios", scenarioHandler.StartSession)
		authed.POST("/scenarios/:id/judge", scenarioHandler.Judge)
		authed.POST("/sessions/:sessionId/complete", sessionHandler.Complete)
		authed.GET("/badges", sessionHandler.ListBadges)

		review := authed.Group("", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin))
		{
			review.GET("/quizzes/pending", reviewHandler.PendingQuizzes)
			review.PUT("/quizzes/:id/review", reviewHandler.ReviewQuiz)
			review.GET("/scenarios/pending", reviewHandler.PendingScenarios)
			review.PUT("/scenarios/:id/review", reviewHandler.ReviewScenario)
		}

		authed.POST("/quizzes/generate",
			middleware.RequireRole(models.RoleCreator, models.RoleAdmin), aiHandler.Generate)

		admin := authed.Group("", middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/dashboard/progress", dashboardHandler.Progress)
			admin.GET("/dashboard/export", dashboardHandler.Export)
			admin.GET("/users", userHandler.ListUsers)
			admin.POST("/users", userHandler.CreateUser)
			admin.PUT("/users/:id/role", userHandler.UpdateRole)
		}
	}

	log.Info("starting server", "port", cfg.ServerPort, "store", cfg.StoreDriver)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
