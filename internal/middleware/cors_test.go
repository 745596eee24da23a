package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/blinko/backend/internal/config"
)

func wsRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWebSocketCORSCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", FrontendURL: "https://blinko.example, https://play.blinko.example"}

	router := gin.New()
	router.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		origin string
		want   int
	}{
		{"https://blinko.example", http.StatusOK},
		{"https://play.blinko.example", http.StatusOK},
		{"https://evil.example", http.StatusForbidden},
		{"http://localhost:5173", http.StatusForbidden},
		{"", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, wsRequest(tc.origin))
		if w.Code != tc.want {
			t.Errorf("origin %q: status %d, want %d", tc.origin, w.Code, tc.want)
		}
	}

	cfg.Environment = "development"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, wsRequest("http://localhost:5173"))
	if w.Code != http.StatusOK {
		t.Errorf("dev localhost status %d", w.Code)
	}
}

func TestCORSMiddlewareAllowsFrontend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", FrontendURL: "https://blinko.example"}

	router := gin.New()
	router.Use(CORSMiddleware(cfg))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://blinko.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://blinko.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
