package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"langgol/internal/handlers"
	"langgol/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	historyHandler *handlers.HistoryHandler,
	demoHandler *handlers.DemoHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/signup", authHandler.Signup)
	r.POST("/verify", authHandler.Verify)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/request-password-reset", authHandler.RequestPasswordReset)
	r.POST("/complete-password-reset", authHandler.CompletePasswordReset)

	// demo sessions are anonymous by definition
	demoGroup := r.Group("/demo")
	{
		demoGroup.POST("/start", demoHandler.Start)
		demoGroup.POST("/usage", demoHandler.RecordUsage)
	}

	// ---- protected
	auth := middleware.AuthMiddleware(jwtSecret)

	r.POST("/logout", auth, authHandler.Logout)

	users := r.Group("/users", auth)
	{
		users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
		users.PUT("/:email", middleware.RequireSelf("email"), userHandler.UpdateProfile)
	}

	history := r.Group("/history", auth)
	{
		history.POST("", historyHandler.Save)
		history.GET("/:email", middleware.RequireSelf("email"), historyHandler.Load)
		history.GET("/:email/export", middleware.RequireSelf("email"), historyHandler.Export)
	}

	return r
}
