package config

import "os"

// Config collects every runtime setting the server reads from the
// environment. Defaults match the local docker-compose setup.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	WebhookURL string
	WebhookKey string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "academy_user"),
		DBPassword: getEnv("DB_PASSWORD", "academy_password"),
		DBName:     getEnv("DB_NAME", "academy"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTSecret: getEnv("JWT_SECRET", "academy-staging-signing-key-2026"),

		WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		WebhookKey: getEnv("NOTIFY_WEBHOOK_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
