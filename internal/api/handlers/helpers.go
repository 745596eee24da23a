package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blinko/backend/internal/fairness"
	"github.com/blinko/backend/internal/game"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidWager), errors.Is(err, fairness.ErrInvalidSeed):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrWrongPhase), errors.Is(err, game.ErrRoundInProgress), errors.Is(err, fairness.ErrNotSealed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pagination reads limit/offset query params, capping limit at max.
func pagination(c *gin.Context, def, max int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
