package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by WVE_ENV (or .env by default), then
// the corresponding .secret file if it exists. Values already present in
// the environment win.
func Load() error {
	envFile := os.Getenv("WVE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// EmbeddingProvider returns the configured embedding provider.
// Valid values: openai, ollama, genai, mock. Defaults to openai; without
// OPENAI_API_KEY the model cannot load and themes are matched lexically.
// mock is a hashed bag-of-words for tests and offline demos only.
func EmbeddingProvider() string {
	p := strings.ToLower(strings.TrimSpace(os.Getenv("EMBEDDING_PROVIDER")))
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "openai":
		return OpenAIAPIKey()
	case "genai":
		return GeminiAPIKey()
	default:
		return ""
	}
}

func OllamaEndpoint() string {
	e := os.Getenv("OLLAMA_ENDPOINT")
	if e == "" {
		return "http://localhost:11434"
	}
	return e
}

func OllamaModel() string {
	m := os.Getenv("OLLAMA_MODEL")
	if m == "" {
		return "all-minilm"
	}
	return m
}

// EmbeddingCacheEnabled reports whether embeddings are persisted to the
// database. Defaults to true; only meaningful when DATABASE_URL is set.
func EmbeddingCacheEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("EMBEDDING_CACHE"))
	if err != nil {
		return true
	}
	return v
}

// APIKey returns the static bearer token required by the HTTP API.
// Empty disables authentication.
func APIKey() string {
	return os.Getenv("API_KEY")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
