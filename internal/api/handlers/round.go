package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blinko/backend/internal/game"
)

type roundCommand func(ctx context.Context, sessionID string) (game.RoundSnapshot, error)

// roundHandler runs cmd for the authenticated session and returns the snapshot.
func roundHandler(cmd roundCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := cmd(c.Request.Context(), c.GetString("session_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func GetRoundState(m *game.Manager) gin.HandlerFunc { return roundHandler(m.State) }
func DoubleWager(m *game.Manager) gin.HandlerFunc { return roundHandler(m.DoubleWager) }
func HalveWager(m *game.Manager) gin.HandlerFunc { return roundHandler(m.HalveWager) }
func AcknowledgeRound(m *game.Manager) gin.HandlerFunc { return roundHandler(m.Acknowledge) }
func AbandonRound(m *game.Manager) gin.HandlerFunc { return roundHandler(m.Abandon) }

// SetWager sets the session's wager.
func SetWager(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Wager float64 `json:"wager" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wager is required"})
			return
		}
		snap, err := m.SetWager(c.Request.Context(), c.GetString("session_id"), req.Wager)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// StartRound drops a ball. The optional client_seed (hex) applies to this drop only.
func StartRound(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ClientSeed string `json:"client_seed"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}
		snap, err := m.Start(c.Request.Context(), c.GetString("session_id"), req.ClientSeed)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	}
}

// RevealRound discloses the seeds of the last settled drop.
func RevealRound(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		seeds, err := m.Reveal(c.Request.Context(), c.GetString("session_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, seeds)
	}
}

// GetLastSettlement returns the session's most recent settlement.
func GetLastSettlement(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.LastSettlement(c.Request.Context(), c.GetString("session_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if s == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no settled round"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
