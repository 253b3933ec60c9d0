package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_DRIVER    string // postgres (default) or sqlite
	DB_PATH      string // sqlite file path
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	RATE_LIMIT_WINDOW   time.Duration
	MAX_UPLOAD_MB       int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Administrator bootstrap (cmd/seed)
	ADMIN_EMAIL    string
	ADMIN_PASSWORD string
	// Redis Configuration
	REDIS_URL string
	// Blob storage (S3 compatible)
	S3_ACCESS_KEY string
	S3_SECRET_KEY string
	S3_BUCKET     string
	S3_REGION     string
	S3_ENDPOINT   string
	S3_CDN_URL    string
	S3_PATH_STYLE bool
	// Career plan inference (OpenAI compatible)
	INFERENCE_API_KEY  string
	INFERENCE_BASE_URL string
	INFERENCE_MODEL    string
	INFERENCE_TIMEOUT  time.Duration
	// Company legitimacy lookup
	LEGIT_API_URL string
	// Resume payments
	RAZORPAY_KEY_SECRET string
	// Scheduled jobs
	CRON_ENABLED        bool
	ORPHAN_SWEEP_CRON   string
	ORPHAN_GRACE_PERIOD time.Duration
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_DRIVER:    getOrDefault("DB_DRIVER", "postgres"),
		DB_PATH:      getOrDefault("DB_PATH", "campusconnect.db"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// HTTP
		ALLOWED_ORIGINS:     getOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
		RATE_LIMIT_REQUESTS: getInt("RATE_LIMIT_REQUESTS", 100),
		RATE_LIMIT_WINDOW:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		MAX_UPLOAD_MB:       getInt("MAX_UPLOAD_MB", 25),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getOrDefault("JWT_ISSUER", "campusconnect"),
		// Admin
		ADMIN_EMAIL:    os.Getenv("ADMIN_EMAIL"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Blob storage
		S3_ACCESS_KEY: os.Getenv("S3_ACCESS_KEY"),
		S3_SECRET_KEY: os.Getenv("S3_SECRET_KEY"),
		S3_BUCKET:     os.Getenv("S3_BUCKET"),
		S3_REGION:     getOrDefault("S3_REGION", "us-east-1"),
		S3_ENDPOINT:   os.Getenv("S3_ENDPOINT"),
		S3_CDN_URL:    os.Getenv("S3_CDN_URL"),
		S3_PATH_STYLE: getBool("S3_PATH_STYLE", false),
		// Inference
		INFERENCE_API_KEY:  os.Getenv("INFERENCE_API_KEY"),
		INFERENCE_BASE_URL: getOrDefault("INFERENCE_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		INFERENCE_MODEL:    getOrDefault("INFERENCE_MODEL", "gemini-2.5-flash"),
		INFERENCE_TIMEOUT:  getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		// Legit
		LEGIT_API_URL: getOrDefault("LEGIT_API_URL", "https://legit-api.vercel.app"),
		// Payments
		RAZORPAY_KEY_SECRET: os.Getenv("RAZORPAY_KEY_SECRET"),
		// Cron
		CRON_ENABLED:        getBool("CRON_ENABLED", true),
		ORPHAN_SWEEP_CRON:   getOrDefault("ORPHAN_SWEEP_CRON", "0 0 * * * *"),
		ORPHAN_GRACE_PERIOD: getDuration("ORPHAN_GRACE_PERIOD", 24*time.Hour),
	}

	return envVariables, nil
}

// Validate reports every required variable that is missing for the selected setup
func (e *EnviornmentVariable) Validate() error {
	var missing []string

	if e.JWT_SECRET == "" {
		missing = append(missing, "JWT_SECRET")
	} else if len(e.JWT_SECRET) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	if e.DB_DRIVER == "postgres" {
		for name, value := range map[string]string{
			"DB_USER_NAME": e.DB_USER_NAME,
			"DB_NAME":      e.DB_NAME,
		} {
			if value == "" {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the service runs with GO_ENV=production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// PostgresDSN builds the connection string used by gorm and the LISTEN/NOTIFY listener
func (e *EnviornmentVariable) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		e.DB_HOST,
		e.DB_USER_NAME,
		e.DB_PASSWORD,
		e.DB_NAME,
		e.DB_PORT,
		e.DB_SSL_MODE,
	)
}

// BlobStorageConfigured reports whether S3 credentials and bucket are set
func (e *EnviornmentVariable) BlobStorageConfigured() bool {
	return e.S3_BUCKET != "" && e.S3_ACCESS_KEY != "" && e.S3_SECRET_KEY != ""
}

func getOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
