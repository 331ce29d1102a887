package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Keys     APIKeys
	Ai       AIConfig
	Tracing  TracingConfig
	Mail     MailConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ActivityTopic      string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type APIKeys struct {
	GoogleGemini string
	Anthropic    string
	OpenAI       string
	HuggingFace  string
}

type AIConfig struct {
	LLMProvider   string // "gemini", "anthropic", "openai", "ollama", "huggingface"
	LLMModel      string
	OllamaBaseURL string
	OpenAIBaseURL string
	Timeout       time.Duration
	HistoryLimit  int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// MailConfig is optional; welcome mails are off while Host is empty.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Sender      string
	FrontendURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			ActivityTopic:      getEnv("CHAT_ACTIVITY_TOPIC", "CHAT_ACTIVITY"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:  time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-2.0-flash"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			Timeout:       time.Duration(getEnvAsInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
			HistoryLimit:  getEnvAsInt("AI_HISTORY_LIMIT", 10),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "career-chat-backend"),
		},
		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			Sender:      getEnv("SMTP_SENDER", "no-reply@career-chat.local"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}
}

// APIKeyFor returns the credential matching the configured LLM provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.Keys.GoogleGemini
	case "anthropic":
		return c.Keys.Anthropic
	case "openai":
		return c.Keys.OpenAI
	case "huggingface":
		return c.Keys.HuggingFace
	default:
		return ""
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
