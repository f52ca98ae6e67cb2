package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Hussain0327/echo-analytics-platform/internal/llm"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	LLM      llm.Config
	HTTPAddr string
	DataPath string
	LogDir   string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		LLM:      loadLLM(),
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
		DataPath: dataPath,
		LogDir:   logDir,
	}

	return cfg, nil
}

// loadLLM resolves the completion provider. A DeepSeek key takes priority and
// switches the base URL and model to DeepSeek's; otherwise the OpenAI key and
// defaults apply.
func loadLLM() llm.Config {
	cfg := llm.Config{
		APIKey:      getEnv("OPENAI_API_KEY", ""),
		BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		Model:       getEnv("LLM_MODEL", "gpt-4-turbo-preview"),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
		Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		cfg.APIKey = key
		cfg.BaseURL = getEnv("LLM_BASE_URL", "https://api.deepseek.com/v1")
		cfg.Model = getEnv("LLM_MODEL", "deepseek-chat")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
