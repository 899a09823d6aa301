package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Collaborator endpoints consumed by the controller.
	MatchmakingURL string
	MatchDataURL   string
	RoomWSURL      string

	// Snapshot-load retry policy. The fixed delay and hard cap are
	// defaults, not load-bearing behavior.
	SnapshotRetryAttempts int
	SnapshotRetryDelay    time.Duration

	// Delay before a guest session is shown the sign-up prompt after a
	// match resolves, so the in-place result is acknowledged first.
	GuestPromptDelay time.Duration

	JWTSecret string

	// Simulator-only settings.
	DatabaseURL        string
	RedisURL           string
	RedisPassword      string
	RateLimitPerMinute int
}

var AppConfig *Config

func LoadConfig() *Config {
	AppConfig = &Config{
		Port:                  GetEnv("PORT", "8080"),
		MatchmakingURL:        GetEnv("MATCHMAKING_URL", "http://localhost:8080"),
		MatchDataURL:          GetEnv("MATCH_DATA_URL", "http://localhost:8080"),
		RoomWSURL:             GetEnv("ROOM_WS_URL", "ws://localhost:8080/ws"),
		SnapshotRetryAttempts: GetEnvAsInt("SNAPSHOT_RETRY_ATTEMPTS", 5),
		SnapshotRetryDelay:    time.Duration(GetEnvAsInt("SNAPSHOT_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		GuestPromptDelay:      time.Duration(GetEnvAsInt("GUEST_PROMPT_DELAY_MS", 2000)) * time.Millisecond,
		JWTSecret:             GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		DatabaseURL:           GetEnv("DATABASE_URL", ""),
		RedisURL:              GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:         GetEnv("REDIS_PASSWORD", ""),
		RateLimitPerMinute:    GetEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
	}
	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
