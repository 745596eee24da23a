package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/game"
)

// GetConfig returns what a renderer needs to draw the table: playfield
// constants, triangle, pegs and the pay table with colors.
func GetConfig(table *game.Table, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt := cfg.Runtime()
		c.JSON(http.StatusOK, gin.H{
			"physics":          table.Config,
			"triangle":         table.Field.Triangle,
			"rows":             table.Field.Rows,
			"exit_x":           table.Config.ExitX(),
			"launch":           table.Launch(),
			"bins":             table.Bins.Bins(),
			"starting_balance": rt.StartingBalance,
			"default_wager":    rt.DefaultWager,
			"min_wager":        table.Config.MinWager,
			"tick_rate":        cfg.TickRate,
		})
	}
}

// GetPegs returns the generated peg field.
func GetPegs(table *game.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, table.Field)
	}
}
