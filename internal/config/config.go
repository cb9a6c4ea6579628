package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Bot       BotConfig
	Knowledge KnowledgeConfig
}

// DatabaseConfig holds catalog store configuration. The DSN selects the
// driver: postgres:// URLs (or key=value DSNs) use lib/pq, anything else is
// treated as a SQLite file path.
type DatabaseConfig struct {
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	AllowedOrigins string
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string // main dialogue model
	ClassifierModel     string // cheaper model for filter extraction
	Temperature         float64
	MaxTokens           int
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// BotConfig holds dialogue-loop configuration
type BotConfig struct {
	PromptFilePath   string
	WelcomePhrase    string
	LimitPhrase      string
	MaxMessages      int // 0 = no demo cap
	MaxHistoryTokens int
	ClassifierTurns  int // how many trailing turns the classifier sees
}

// KnowledgeConfig holds knowledge-base configuration
type KnowledgeConfig struct {
	Dir  string
	TopK int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("DB_DSN", "complexes.db")),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
			ClassifierModel:     getEnv("OPENAI_CLASSIFIER_MODEL", "gpt-4o-mini"),
			Temperature:         getEnvAsFloat("OPENAI_TEMPERATURE", 0.5),
			MaxTokens:           getEnvAsInt("OPENAI_MAX_TOKENS", 10500),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 3072),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 60),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Bot: BotConfig{
			PromptFilePath:   getEnv("PROMPT_FILE_PATH", "prompts/assistant.txt"),
			WelcomePhrase:    getEnv("WELCOME_PHRASE", "Здравствуйте! Я помогу подобрать квартиру. Что вас интересует?"),
			LimitPhrase:      getEnv("LIMIT_PHRASE", "Вы превысили количество сообщений для демо-версии ИИ Менеджера."),
			MaxMessages:      getEnvAsInt("MAX_MESSAGES", 0),
			MaxHistoryTokens: getEnvAsInt("MAX_HISTORY_TOKENS", 10500),
			ClassifierTurns:  getEnvAsInt("CLASSIFIER_TURNS", 10),
		},
		Knowledge: KnowledgeConfig{
			Dir:  getEnv("KNOWLEDGE_DIR", "knowledge_files"),
			TopK: getEnvAsInt("KNOWLEDGE_TOP_K", 100),
		},
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
