package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/blinko/backend/internal/fairness"
	"github.com/blinko/backend/internal/game"
)

// GetSessionHistory lists the caller's settled rounds from the ledger.
func GetSessionHistory(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c, 25, 100)
		rounds, err := game.ListSessionRounds(db, c.GetString("session_id"), limit, offset)
		if err != nil {
			log.Printf("[DB] Failed to list session rounds: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rounds": rounds, "limit": limit, "offset": offset})
	}
}

// VerifyRound recomputes a drop from revealed seeds. Anyone holding the seeds
// can check that the published digest and outcome match.
func VerifyRound(table *game.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			fairness.RevealedSeeds
			Wager   float64 `json:"wager" binding:"required"`
			Balance float64 `json:"balance"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "server_seed, client_seed, digest and wager are required"})
			return
		}
		if req.Balance == 0 {
			req.Balance = req.Wager
		}

		settlement, err := game.ReplayRevealed(table, req.RevealedSeeds, req.Wager, req.Balance)
		if err != nil {
			if errors.Is(err, fairness.ErrInvalidSeed) {
				c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "settlement": settlement})
	}
}
