package config

import (
	"os"
	"strconv"
)

type Config struct {
	BotToken     string
	SuperAdminID string

	AezaAPIKey  string
	AezaBaseURL string
	AezaTimeout int

	DBDsn string

	HealthAddr string
}

func Load() *Config {
	return &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		SuperAdminID: os.Getenv("SUPER_ADMIN_ID"),

		AezaAPIKey:  os.Getenv("AEZA_API_KEY"),
		AezaBaseURL: getEnvOrDefault("AEZA_BASE_URL", "https://my.aeza.net/api"),
		AezaTimeout: getEnvIntOrDefault("AEZA_TIMEOUT_SECONDS", 10),

		DBDsn: getEnvOrDefault("DB_DSN", "/data/aezabot.db"),

		HealthAddr: getEnvOrDefault("HEALTH_ADDR", "0.0.0.0:8080"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
