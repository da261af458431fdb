package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"langgol/internal/config"
	"langgol/internal/demo"
	"langgol/internal/handlers"
	"langgol/internal/pdf"
	"langgol/internal/repositories"
	"langgol/internal/routes"
	"langgol/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "langgol/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to DB: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close DB: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	alertService := services.NewAlertService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	outboxService := services.NewOutboxService(
		outboxRepo,
		emailService,
		alertService,
		cfg.Outbox.MaxAttempts,
		time.Duration(cfg.Outbox.PollSeconds)*time.Second,
	)
	accountService := services.NewAccountService(userRepo, outboxService, authService)

	reportGen := pdf.NewReportGenerator(cfg.Files.RootDir)
	historyService := services.NewHistoryService(historyRepo, reportGen)

	// seed the admin account (idempotent)
	if err := accountService.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatal("Failed to ensure admin user: ", err)
	}

	// retry pending verification mail in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go outboxService.Run(ctx)

	// === Handlers ===
	jwtSecret := []byte(cfg.JWT.Secret)
	authHandler := handlers.NewAuthHandler(accountService, jwtSecret)
	userHandler := handlers.NewUserHandler(accountService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	demoHandler := handlers.NewDemoHandler(demo.Limits{
		Requests: cfg.Demo.RequestLimit,
		TalkTime: cfg.Demo.TalkTimeLimit,
	}, cfg.Demo.CookieDays)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		userHandler,
		historyHandler,
		demoHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
