package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/billboard/pkg/httpx"
)

type Config struct {
	DatabaseFile      string        // Optional: path to SQLite database file (default: site.db)
	StaticDir         string        // Optional: directory served under /static/ (default: static)
	SessionSecret     string        // Optional: HMAC key for session cookies, overrides SessionSecretFile
	SessionSecretFile string        // Optional: file holding the session key, created on first start (default: session.key)
	PepperFile        string        // Optional: file holding the password pepper (default: pepper)
	SessionTTL        time.Duration // Session lifetime (default: 24h)
	CookieSecure      bool          // Mark cookies Secure, enable behind TLS (default: false)
	MaxUploadBytes    int64         // Profile picture size cap (default: 5 MiB)

	PresenceInterval    time.Duration // How often idle users are swept offline (default: 5m)
	PresenceIdleTimeout time.Duration // Inactivity after which a user counts as offline, 0 disables the sweeper (default: 0)

	Env                 string // Environment (dev, staging, prod) (default: dev)
	LogLevel            string // Log level (debug, info, warn, error) (default: info)
	LogFormat           string // Log format (json, text) (default: json)
	Port                int    // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration

	RateLimits httpx.RateLimits
}

// LoadConfig reads the environment, after loading ENV_FILE (default .env)
// when it exists. Variables already set win over the file.
func LoadConfig() Config {
	_ = godotenv.Load(getEnvOrDefault("ENV_FILE", ".env"))

	return Config{
		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "site.db"),
		StaticDir:           getEnvOrDefault("STATIC_DIR", "static"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		SessionSecretFile:   getEnvOrDefault("SESSION_SECRET_FILE", "session.key"),
		PepperFile:          getEnvOrDefault("PEPPER_FILE", "pepper"),
		SessionTTL:          getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		CookieSecure:        getEnvBoolOrDefault("COOKIE_SECURE", false),
		MaxUploadBytes:      int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", 5<<20)),
		PresenceInterval:    getEnvDurationOrDefault("PRESENCE_SWEEP_INTERVAL", 5*time.Minute),
		PresenceIdleTimeout: getEnvDurationOrDefault("PRESENCE_IDLE_TIMEOUT", 0),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		RateLimits:          httpx.RateLimitsFromEnv(),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
