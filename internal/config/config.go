package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Ladder Policy
	ProximityWindow      int
	TopRankExempt        bool
	ResponseDeadlineDays int
	LossCooldownHours    int
	ForfeitWinner        string // "challenger" or "non_responder"

	// Workers
	SweepIntervalMinutes int
	SerializableRetries  int

	// Abuse guards
	ChallengeRateLimitSecs int

	// Security
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/cueladder?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Ladder Policy
		ProximityWindow:      getEnvInt("PROXIMITY_WINDOW", 5),
		TopRankExempt:        getEnvBool("TOP_RANK_EXEMPT", true),
		ResponseDeadlineDays: getEnvInt("RESPONSE_DEADLINE_DAYS", 14),
		LossCooldownHours:    getEnvInt("LOSS_COOLDOWN_HOURS", 24),
		ForfeitWinner:        getEnv("FORFEIT_WINNER", "challenger"),

		// Workers
		SweepIntervalMinutes: getEnvInt("SWEEP_INTERVAL_MINUTES", 5),
		SerializableRetries:  getEnvInt("SERIALIZABLE_RETRIES", 3),

		// Abuse guards
		ChallengeRateLimitSecs: getEnvInt("CHALLENGE_RATE_LIMIT_SECONDS", 30),

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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
