package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/blinko/backend/internal/api/handlers"
	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/game"
	"github.com/blinko/backend/internal/middleware"
	"github.com/blinko/backend/internal/ws"
)

// SetupRoutes configures all API routes. db may be nil, in which case the
// ledger and admin endpoints are not mounted.
func SetupRoutes(router *gin.Engine, m *game.Manager, hub *ws.Hub, db *sqlx.DB, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	table := m.Table()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(table, cfg))
		v1.GET("/pegs", handlers.GetPegs(table))
		v1.POST("/verify", handlers.VerifyRound(table))

		v1.POST("/session", handlers.CreateSession(m, cfg))

		auth := handlers.AuthMiddleware(cfg)

		session := v1.Group("/session", auth)
		{
			session.GET("", handlers.GetSession(m))
			session.PUT("/wager", handlers.SetWager(m))
			session.POST("/wager/double", handlers.DoubleWager(m))
			session.POST("/wager/halve", handlers.HalveWager(m))
			if db != nil {
				session.GET("/history", handlers.GetSessionHistory(db))
			}
		}

		round := v1.Group("/round", auth)
		{
			round.GET("", handlers.GetRoundState(m))
			round.POST("/start", handlers.StartRound(m))
			round.POST("/acknowledge", handlers.AcknowledgeRound(m))
			round.POST("/abandon", handlers.AbandonRound(m))
			round.GET("/reveal", handlers.RevealRound(m))
			round.GET("/settlement", handlers.GetLastSettlement(m))
			round.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleRoundWebSocket(hub, m))
		}

		if db != nil {
			adm := v1.Group("/admin", handlers.AdminMiddleware(db))
			{
				adm.GET("/me", handlers.AdminMe())
				adm.GET("/rounds", handlers.GetAdminRounds(db))
				adm.GET("/rounds/:id", handlers.GetAdminRound(db))
				adm.GET("/sessions/:id/rounds", handlers.GetAdminSessionRounds(db))
				adm.GET("/audit", handlers.GetAdminAuditLogs(db))
				adm.GET("/config", handlers.GetAdminRuntimeConfig(db))
				adm.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db, cfg))
			}
		} else {
			log.Println("[API] DATABASE_URL not set; history and admin routes disabled")
		}
	}
}
