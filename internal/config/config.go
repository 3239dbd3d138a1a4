package config

import "os"

type Config struct {
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	StoreDriver   string
	JWTSecret     string
	ServerPort    string
	LogMode       string
	AdminEmail    string
	AdminPassword string
	OpenAIKey     string
	OpenAIURL     string
	OpenAIModel   string
}

func Load() *Config {
	return &Config{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "labquiz"),
		StoreDriver:   getEnv("STORE_DRIVER", "postgres"),
		JWTSecret:     getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogMode:       getEnv("LOG_MODE", "dev"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@labquiz.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "changeme"),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIURL:     getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
