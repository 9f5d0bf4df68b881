package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI     string
	DBName       string
	JWTSecret    string
	JWTExpiresIn string
	GeminiAPIKey string
	Port         string
	GinMode      string
	CORSOrigins  []string
	MaxFileSize  int64
	AllowedTypes []string

	// Redis / queue
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Uploads
	FileStorageDir      string
	SyncProcessingLimit int64

	// Retrieval engine tuning. Defaults mirror the values the answering
	// pipeline was calibrated with; change with care.
	ChunkSize        int
	ChunkOverlap     int
	MinChunkScore    float64
	MinSentenceScore float64
	AskTopK          int
	SearchTopK       int
	MaxContextChunks int
	GeminiTimeout    int // seconds

	// SMTP (password reset mail)
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Telemetry
	OTLPEndpoint   string
	TracingEnabled bool

	BcryptCost int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017/ktpilot"),
		DBName:       getEnv("DB_NAME", "ktpilot"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnv("JWT_EXPIRES_IN", "24h"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		Port:         getEnv("PORT", "5050"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		CORSOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,text/plain,text/html"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./uploads"),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 5242880), // 5MB processed inline

		ChunkSize:        getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 100),
		MinChunkScore:    getEnvFloat64("MIN_CHUNK_SCORE", 8),
		MinSentenceScore: getEnvFloat64("MIN_SENTENCE_SCORE", 15),
		AskTopK:          getEnvInt("ASK_TOP_K", 12),
		SearchTopK:       getEnvInt("SEARCH_TOP_K", 20),
		MaxContextChunks: getEnvInt("MAX_CONTEXT_CHUNKS", 6),
		GeminiTimeout:    getEnvInt("GEMINI_TIMEOUT", 20),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", ""),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnv("TRACING_ENABLED", "false") == "true",

		BcryptCost: getEnvInt("BCRYPT_COST", 12),
	}

	// Validate required fields. GEMINI_API_KEY is intentionally not
	// required: without it the engine answers from extracted sentences.
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
