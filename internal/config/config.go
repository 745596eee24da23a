package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Sessions
	StartingBalance   float64
	DefaultWager      float64
	MinWager          float64
	SessionTTLMinutes int
	IdleTimeoutSecs   int
	IdlePollSecs      int

	// Simulation
	TickRate        int
	PlayfieldWidth  float64
	PlayfieldHeight float64
	PegRows         int
	PegSpacingX     float64
	PegSpacingY     float64
	GravityX        float64
	GravityY        float64
	MaxSpeed        float64
	InitialSpeed    float64
	Restitution     float64
	WallRestitution float64
	BallRadius      float64
	PegRadius       float64
	ExitMargin      float64
	MaxTicks        int
	CollisionPolicy string
	BinsFile        string

	// Security
	JWTSecret string

	// guards the session settings that can change at runtime
	mu sync.RWMutex
}

// Runtime is the subset of settings an admin can change while the server runs.
type Runtime struct {
	StartingBalance float64
	DefaultWager    float64
	IdleTimeoutSecs int
}

// Runtime returns the current session settings. Readers after startup go
// through here instead of the fields.
func (c *Config) Runtime() Runtime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Runtime{
		StartingBalance: c.StartingBalance,
		DefaultWager:    c.DefaultWager,
		IdleTimeoutSecs: c.IdleTimeoutSecs,
	}
}

// UpdateRuntime applies fn to the session settings under the write lock.
func (c *Config) UpdateRuntime(fn func(r *Runtime)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := Runtime{
		StartingBalance: c.StartingBalance,
		DefaultWager:    c.DefaultWager,
		IdleTimeoutSecs: c.IdleTimeoutSecs,
	}
	fn(&r)
	c.StartingBalance = r.StartingBalance
	c.DefaultWager = r.DefaultWager
	c.IdleTimeoutSecs = r.IdleTimeoutSecs
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Sessions
		StartingBalance:   getEnvFloat("STARTING_BALANCE", 1000),
		DefaultWager:      getEnvFloat("DEFAULT_WAGER", 10),
		MinWager:          getEnvFloat("MIN_WAGER", 1),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 24*60),
		IdleTimeoutSecs:   getEnvInt("IDLE_TIMEOUT_SECONDS", 600),
		IdlePollSecs:      getEnvInt("IDLE_POLL_SECONDS", 15),

		// Simulation
		TickRate:        getEnvInt("TICK_RATE", 60),
		PlayfieldWidth:  getEnvFloat("PLAYFIELD_WIDTH", 800),
		PlayfieldHeight: getEnvFloat("PLAYFIELD_HEIGHT", 600),
		PegRows:         getEnvInt("PEG_ROWS", 0),
		PegSpacingX:     getEnvFloat("PEG_SPACING_X", 35),
		PegSpacingY:     getEnvFloat("PEG_SPACING_Y", 30),
		GravityX:        getEnvFloat("GRAVITY_X", 0.05),
		GravityY:        getEnvFloat("GRAVITY_Y", 0),
		MaxSpeed:        getEnvFloat("MAX_SPEED", 6),
		InitialSpeed:    getEnvFloat("INITIAL_SPEED", 2),
		Restitution:     getEnvFloat("RESTITUTION", 0.6),
		WallRestitution: getEnvFloat("WALL_RESTITUTION", 0.4),
		BallRadius:      getEnvFloat("BALL_RADIUS", 8),
		PegRadius:       getEnvFloat("PEG_RADIUS", 5),
		ExitMargin:      getEnvFloat("EXIT_MARGIN", 100),
		MaxTicks:        getEnvInt("MAX_TICKS", 3600),
		CollisionPolicy: getEnv("COLLISION_POLICY", "first_match"),
		BinsFile:        getEnv("BINS_FILE", ""),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
