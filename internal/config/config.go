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
	App        AppConfig
	Keys       APIKeys
	Ai         AIConfig
	Review     ReviewConfig
	Store      StoreConfig
	Enrichment EnrichmentConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	OtelEnabled        bool
}

type APIKeys struct {
	ApiKey       string // x-api-key expected on /v1 requests; empty disables auth
	JwtSecret    string // optional HS256 secret for bearer service tokens
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider    string // "gemini", "ollama"
	LLMModel       string
	GeminiBackend  string // "apikey" or "vertex"
	GoogleProject  string
	GoogleLocation string
	OllamaBaseURL  string
	Temperature    float64
	Timeout        time.Duration
	MaxTimeout     time.Duration
}

type ReviewConfig struct {
	MockEnabled     bool   // process-wide switch consulted when a request asks for mock "auto"
	ReleasePolicy   string // "score" or "verdict"
	ReleaseMinScore int
}

type StoreConfig struct {
	Backend    string // "memory", "redis", "postgres"
	RedisURL   string
	Connection string
	TTL        time.Duration
}

type EnrichmentConfig struct {
	Enabled      bool
	MaxItems     int
	FetchTimeout time.Duration
	MaxBytes     int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/review_events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Keys: APIKeys{
			ApiKey:       getEnv("API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:       getEnv("LLM_MODEL", "gemini-2.5-flash"),
			GeminiBackend:  getEnv("GEMINI_BACKEND", "apikey"),
			GoogleProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
			GoogleLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxTimeout:     getEnvAsDuration("LLM_MAX_TIMEOUT", 300*time.Second),
		},
		Review: ReviewConfig{
			MockEnabled:     isMockFlag(getEnv("MOCK", "")),
			ReleasePolicy:   getEnv("RELEASE_GATE_POLICY", "score"),
			ReleaseMinScore: getEnvAsInt("RELEASE_MIN_SCORE", 70),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", "memory"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			TTL:        getEnvAsDuration("STORE_TTL", 0),
		},
		Enrichment: EnrichmentConfig{
			Enabled:      getEnvAsBool("ENRICHMENT_ENABLED", false),
			MaxItems:     getEnvAsInt("ENRICHMENT_MAX_ITEMS", 4),
			FetchTimeout: getEnvAsDuration("ENRICHMENT_FETCH_TIMEOUT", 5*time.Second),
			MaxBytes:     int64(getEnvAsInt("ENRICHMENT_MAX_BYTES", 4<<20)),
		},
	}
}

// isMockFlag mirrors the accepted spellings of the MOCK switch.
func isMockFlag(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	// Bare integers are seconds
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
