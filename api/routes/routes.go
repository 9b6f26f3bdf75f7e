package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/raffleworks/raffle-backend/internal/config"
	"github.com/raffleworks/raffle-backend/internal/handlers"
	"github.com/raffleworks/raffle-backend/internal/middleware"
	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/ws"
)

// Handlers bundles the constructed handlers the router wires up.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Raffle  *handlers.RaffleHandler
	Control *handlers.ControlHandler
	Stream  *ws.Handler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	// Create router
	router := gin.Default()

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		// Auth routes
		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// Spectator and display reads, no account required
		public.GET("/raffle-events/:id/public-info", h.Raffle.GetPublicInfo)
		public.GET("/prizes/public-list", h.Raffle.ListPublicPrizes)
		public.GET("/prizes/:id/public-detail", h.Raffle.GetPublicPrize)
		public.GET("/winners/public-list", h.Raffle.ListPublicWinners)
	}

	// The live stream endpoint; display clients join a raffle's room here.
	router.GET("/ws/raffle/:id", h.Stream.Serve)

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	protected.Use(middleware.RequireRole(models.RoleRaffleOperator, models.RoleAdmin))
	{
		// Draw routes
		prizes := protected.Group("/prizes")
		{
			prizes.POST("/:id/select", h.Raffle.SelectWinners)
			prizes.POST("/:id/save-winners", h.Raffle.SaveWinners)
			prizes.POST("/:id/add-participants", h.Raffle.AddParticipants)
			prizes.POST("/:id/reset", h.Raffle.ResetPrize)
		}

		raffleEvents := protected.Group("/raffle-events")
		{
			raffleEvents.POST("/:id/reset-all-prizes", h.Raffle.ResetRaffleEvent)
			raffleEvents.GET("/:id/eligible-participants", h.Raffle.ListEligibleParticipants)
		}

		// Control routes, display animation only
		control := protected.Group("/raffle/control")
		{
			control.POST("/spin", h.Control.Spin)
			control.POST("/save", h.Control.Save)
			control.POST("/select-prize", h.Control.SelectPrize)
			control.POST("/set-display-count", h.Control.SetDisplayCount)
			control.GET("/qr-code", h.Control.ControlURL)
		}

		// Draw log routes
		logs := protected.Group("/raffle-logs")
		{
			logs.GET("", h.Raffle.ListLogs)
			logs.GET("/export", h.Raffle.ExportLogs)
		}
	}

	return router
}
