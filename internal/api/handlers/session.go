package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/game"
)

// issueSessionToken signs an HS256 token carrying the session id.
func issueSessionToken(cfg *config.Config, sessionID string) (string, time.Time, error) {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{"session_id": sessionID, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	return signed, exp, err
}

// parseSessionToken validates token and returns its session id.
func parseSessionToken(cfg *config.Config, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	sessionID, _ := claims["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("token has no session")
	}
	return sessionID, nil
}

// AuthMiddleware validates the session JWT and sets session_id in context.
// Browsers cannot set headers on websocket upgrades, so a token query
// parameter is accepted as well.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		sessionID, err := parseSessionToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("session_id", sessionID)
		c.Next()
	}
}

// CreateSession opens a play session and returns its bearer token.
func CreateSession(m *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ClientSeed string `json:"client_seed"`
		}
		// An empty body is allowed.
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		s, err := m.CreateSession(c.Request.Context(), req.ClientSeed)
		if err != nil {
			respondError(c, err)
			return
		}

		signed, exp, err := issueSessionToken(cfg, s.ID)
		if err != nil {
			log.Printf("[SESSION] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":      signed,
			"expires_at": exp.UTC(),
			"session":    s,
		})
	}
}

// GetSession returns the caller's session with its live balance.
func GetSession(m *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.Session(c.Request.Context(), c.GetString("session_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
