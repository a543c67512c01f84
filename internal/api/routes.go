package api

import (
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/api/handlers"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/game"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/leaderboard"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/middleware"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/missions"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Deps carries the shared services the route handlers close over.
type Deps struct {
	DB          *sqlx.DB
	Cfg         *config.Config
	Matchmaker  *game.Matchmaker
	Missions    *missions.Service
	Leaderboard *leaderboard.Service
	Hub         *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/login", handlers.Login(d.DB, d.Cfg))

		// Everything below requires a session token.
		authed := v1.Group("")
		authed.Use(handlers.AuthMiddleware(d.Cfg))
		{
			authed.GET("/me", handlers.GetMe(d.DB))
			authed.GET("/me/ledger", handlers.GetLedger(d.DB))

			run := authed.Group("/run")
			{
				run.POST("/start", handlers.StartRun(d.DB, d.Cfg))
				run.POST("/submit", handlers.SubmitResult(d.DB, d.Cfg, d.Missions, d.Leaderboard))
				run.GET("/:token", handlers.GetRun(d.DB))
			}

			shop := authed.Group("/shop")
			{
				shop.POST("/upgrade", handlers.PurchaseUpgrade(d.DB))
				shop.POST("/exchange", handlers.ExchangeGems(d.DB, d.Cfg))
			}

			match := authed.Group("/match")
			{
				match.POST("/queue", handlers.JoinQueue(d.Matchmaker))
				match.GET("/queue/status", handlers.QueueStatus(d.Matchmaker))
				match.POST("/queue/leave", handlers.LeaveQueue(d.Matchmaker))
				match.GET("/queue/ws", handlers.QueueSocket(d.Matchmaker, d.Hub))
				match.GET("/:id", handlers.GetMatch(d.DB))
				match.POST("/:id/score", handlers.SubmitMatchScore(d.DB, d.Cfg))
			}

			authed.GET("/missions", handlers.ListMissions(d.Missions))
			authed.POST("/missions/:id/claim", handlers.ClaimMission(d.Missions))

			authed.GET("/leaderboard", handlers.GetLeaderboard(d.Leaderboard))
		}

		// Admin endpoints use their own credential pair, not player sessions.
		adminGroup := v1.Group("/admin")
		adminGroup.Use(handlers.AdminAuthMiddleware(d.DB))
		{
			adminGroup.GET("/users/:id/reconcile", handlers.AdminReconcileUser(d.DB))
			adminGroup.GET("/users/:id/ledger", handlers.AdminGetUserLedger(d.DB))
		}
	}
}
