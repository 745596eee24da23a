package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/blinko/backend/internal/admin"
	"github.com/blinko/backend/internal/game"
)

const (
	adminUserHeader  = "X-Admin-User"
	adminTokenHeader = "X-Admin-Token"
)

// AdminMiddleware authenticates every admin request with username + token
// headers and requires the auditor role.
func AdminMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader(adminUserHeader)
		token := c.GetHeader(adminTokenHeader)
		if username == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		acc, err := admin.Authenticate(db, username, token, c.ClientIP())
		if err != nil {
			switch {
			case errors.Is(err, admin.ErrIPNotAllowed):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "IP not allowed"})
			case errors.Is(err, admin.ErrAdminNotFound), errors.Is(err, admin.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}
		if !admin.HasRole(acc, admin.RoleAuditor) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "auditor role required"})
			return
		}

		c.Set("admin_username", acc.Username)
		c.Next()
	}
}

// AdminMe returns the authenticated admin
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("admin_username")})
	}
}

// GetAdminRounds lists settled rounds across all sessions, newest first.
func GetAdminRounds(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		limit, offset := pagination(c, 50, 500)

		rounds, err := game.ListRounds(db, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch rounds: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), c.FullPath(), "list_rounds",
			map[string]interface{}{"limit": limit, "offset": offset}, true)
		c.JSON(http.StatusOK, gin.H{"rounds": rounds, "limit": limit, "offset": offset})
	}
}

// GetAdminRound returns one round including its revealed server seed.
func GetAdminRound(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		id := c.Param("id")

		round, err := game.GetRound(db, id)
		if err != nil {
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), c.FullPath(), "get_round",
				map[string]interface{}{"round_id": id}, false)
			respondError(c, err)
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), c.FullPath(), "get_round",
			map[string]interface{}{"round_id": id}, true)
		c.JSON(http.StatusOK, round)
	}
}

// GetAdminSessionRounds lists rounds for one session.
func GetAdminSessionRounds(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c, 50, 500)
		rounds, err := game.ListSessionRounds(db, c.Param("id"), limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch session rounds: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rounds": rounds, "limit": limit, "offset": offset})
	}
}
