package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingBaseURL     string
	EmbeddingModel       string
	LLMProvider          string // "ollama", "openai", "hosted"
	LLMBaseURL           string
	LLMAPIKey            string
	PlanningModel        string
	PlanningTemperature  float64
	PlanningMaxTokens    int
	SynthesisModel       string
	SynthesisTemperature float64
	SynthesisMaxTokens   int
}

type RagConfig struct {
	MaxHistoryTurns int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMBaseURL:           getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:            getEnv("LLM_API_KEY", ""),
			PlanningModel:        getEnv("PLANNING_MODEL", "qwen2.5:7b"),
			PlanningTemperature:  getEnvAsFloat("PLANNING_TEMPERATURE", 0.1),
			PlanningMaxTokens:    getEnvAsInt("PLANNING_MAX_TOKENS", 1024),
			SynthesisModel:       getEnv("SYNTHESIS_MODEL", "llama3.1:8b"),
			SynthesisTemperature: getEnvAsFloat("SYNTHESIS_TEMPERATURE", 0.4),
			SynthesisMaxTokens:   getEnvAsInt("SYNTHESIS_MAX_TOKENS", 2048),
		},
		Rag: RagConfig{
			MaxHistoryTurns: getEnvAsInt("MAX_HISTORY_TURNS", 5),
		},
	}
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
