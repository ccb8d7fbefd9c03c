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
	Addr       string
	CORSOrigin string
	// Sessions
	RedisURL   string
	SessionTTL time.Duration
	// Template catalog
	DatabaseURL    string
	MigrationsDir  string
	MeiliURL       string
	MeiliMasterKey string
	// Generation
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GenerateTimeout time.Duration
	Company         string
	DefaultLanguage string
	// Layout and export
	MaxTools      int
	MaxSteps      int
	StepOverflow  string
	ExportTimeout time.Duration
	ChromePath    string
	// MinIO - export artifacts are stored only when an endpoint is set
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioExpiry    time.Duration
}

// Load reads .env when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8787"),
		CORSOrigin: getenv("JSA_CORS_ORIGIN", "*"),
		// Redis - sessions stay in process memory when empty
		RedisURL:   getenv("REDIS_URL", ""),
		SessionTTL: getenvSeconds("JSA_SESSION_TTL_SECONDS", 7200),
		// Postgres - the embedded seeds serve the catalog when empty
		DatabaseURL:    getenv("DATABASE_URL", ""),
		MigrationsDir:  getenv("JSA_MIGRATIONS_DIR", "./db/migrations"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		// OpenAI - every generate request falls back to a template when empty
		OpenAIAPIKey:    getenv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getenv("OPENAI_BASE_URL", ""),
		OpenAIModel:     getenv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		GenerateTimeout: getenvSeconds("JSA_GENERATE_TIMEOUT_SECONDS", 60),
		Company:         getenv("JSA_COMPANY", "JESA"),
		DefaultLanguage: getenv("JSA_DEFAULT_LANGUAGE", "en"),
		MaxTools:        getenvInt("JSA_MAX_TOOLS", 8),
		MaxSteps:        getenvInt("JSA_MAX_STEPS", 12),
		StepOverflow:    getenv("JSA_STEP_OVERFLOW", "truncate"),
		ExportTimeout:   getenvSeconds("JSA_EXPORT_TIMEOUT_SECONDS", 60),
		ChromePath:      getenv("CHROME_PATH", ""),
		MinioEndpoint:   getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getenv("MINIO_BUCKET", "jsa-exports"),
		MinioUseSSL:     getenvBool("MINIO_USE_SSL", false),
		MinioExpiry:     time.Duration(getenvInt("MINIO_EXPIRE_HOURS", 24)) * time.Hour,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getenvInt(key, fallback)) * time.Second
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
