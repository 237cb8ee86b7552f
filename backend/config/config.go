package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite file or DSN
	JWTSecret  string
	TokenTTL   time.Duration
	ServerPort string
	CORSOrigin string

	GeminiAPIKey    string
	GeminiModel     string
	AITimeout       time.Duration
	AIMaxConcurrent int

	LogLevel  string
	LogFormat string // json, console

	// ReviewRequiresEnrollment rejects reviews from users outside the course roster.
	ReviewRequiresEnrollment bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, err
	}
	aiTimeout, err := time.ParseDuration(getEnv("AI_TIMEOUT", "60s"))
	if err != nil {
		return nil, err
	}
	aiMaxConcurrent, err := strconv.Atoi(getEnv("AI_MAX_CONCURRENT", "4"))
	if err != nil {
		return nil, err
	}
	requireEnrollment, err := strconv.ParseBool(getEnv("REVIEW_REQUIRES_ENROLLMENT", "true"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "course_marketplace"),
		DBPath:     getEnv("DB_PATH", "course_marketplace.db"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		TokenTTL:   tokenTTL,
		ServerPort: getEnv("SERVER_PORT", "5000"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AITimeout:       aiTimeout,
		AIMaxConcurrent: aiMaxConcurrent,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ReviewRequiresEnrollment: requireEnrollment,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
