package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration values for the application.
// These values are loaded from a .env file at startup.
type Config struct {
	// ServerPort is the port the HTTP server listens on
	ServerPort string

	// DatabasePath is the sqlite file holding users, conversations and messages
	DatabasePath string

	// JWTSecret signs access and refresh tokens
	JWTSecret     string
	JWTTTL        time.Duration
	JWTRefreshTTL time.Duration

	// CORSOrigins is the list of origins allowed by the CORS handler
	CORSOrigins []string

	// RequestLogPath is the append-only file written by the request logger
	RequestLogPath string

	// PolicyFile is an optional YAML file overriding the admission policy
	PolicyFile string

	// RedisAddr enables the shared rate-limit store when set
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RateStatsEnabled records rate-limit decisions into Redis hashes
	RateStatsEnabled bool

	// SupabaseURL and SupabaseKey enable the realtime notification relay
	SupabaseURL string

	// SupabaseKey is the service role key for backend operations
	// This key has elevated privileges and should never be exposed to clients
	SupabaseKey string

	// SupabaseRPS caps outbound broadcast requests per second
	SupabaseRPS float64

	// JanitorInterval is how often idle rate windows are swept
	JanitorInterval time.Duration
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment variables.
// Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	// as we may be running in production with real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		ServerPort:       getEnv("PORT", "8080"),
		DatabasePath:     getEnv("DATABASE_PATH", "./parley.db"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvDuration("JWT_TTL", 2*time.Hour),
		JWTRefreshTTL:    getEnvDuration("JWT_REFRESH_TTL", 24*time.Hour),
		CORSOrigins:      getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		RequestLogPath:   getEnv("REQUEST_LOG_PATH", "./requests.log"),
		PolicyFile:       getEnv("POLICY_FILE", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RateStatsEnabled: getEnvBool("RATE_STATS_ENABLED", false),
		SupabaseURL:      getEnv("SUPABASE_URL", ""),
		SupabaseKey:      getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseRPS:      getEnvFloat("SUPABASE_RPS", 10),
		JanitorInterval:  getEnvDuration("JANITOR_INTERVAL", time.Minute),
	}

	if config.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set, using an insecure development secret")
		config.JWTSecret = "parley-dev-secret"
	}
	if config.SupabaseURL == "" || config.SupabaseKey == "" {
		log.Println("Supabase relay disabled (SUPABASE_URL or SUPABASE_SERVICE_ROLE_KEY not set)")
	}

	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable and trims whitespace
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
