package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "EMBEDDING_PROVIDER", "OPENAI_API_KEY", "OLLAMA_MODEL", "EMBEDDING_CACHE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "MIGRATIONS_PATH"} {
		t.Setenv(k, "")
	}

	if got := ServerAddr(); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}
	if got := EmbeddingProvider(); got != "openai" {
		t.Fatalf("expected openai, got %s", got)
	}
	if got := EmbeddingAPIKey(); got != "" {
		t.Fatalf("expected no key when OPENAI_API_KEY is unset, got %q", got)
	}
	if got := OllamaModel(); got != "all-minilm" {
		t.Fatalf("expected all-minilm, got %s", got)
	}
	if !EmbeddingCacheEnabled() {
		t.Fatal("expected embedding cache enabled by default")
	}
	if RateLimitRPS() != 100 || RateLimitBurst() != 20 {
		t.Fatalf("expected 100/20, got %v/%d", RateLimitRPS(), RateLimitBurst())
	}
	if LogLevel() != "info" || MigrationsPath() != "migrations" {
		t.Fatalf("unexpected defaults %s %s", LogLevel(), MigrationsPath())
	}
}

func TestEmbeddingAPIKeyFollowsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	t.Setenv("EMBEDDING_PROVIDER", "OpenAI")
	if got := EmbeddingAPIKey(); got != "sk-openai" {
		t.Fatalf("expected openai key, got %q", got)
	}
	t.Setenv("EMBEDDING_PROVIDER", "genai")
	if got := EmbeddingAPIKey(); got != "gm-key" {
		t.Fatalf("expected gemini key, got %q", got)
	}
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	if got := EmbeddingAPIKey(); got != "" {
		t.Fatalf("expected no key for ollama, got %q", got)
	}
}

func TestLoadReadsEnvFileAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("OLLAMA_MODEL=nomic-embed-text\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(envFile+".secret", []byte("API_KEY=from-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WVE_ENV", envFile)
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("API_KEY", "")
	os.Unsetenv("OLLAMA_MODEL")
	os.Unsetenv("API_KEY")

	if err := Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := OllamaModel(); got != "nomic-embed-text" {
		t.Fatalf("expected model from env file, got %s", got)
	}
	if got := APIKey(); got != "from-secret" {
		t.Fatalf("expected key from secret file, got %q", got)
	}
}
