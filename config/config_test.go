package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.MaxChars != 1000 {
		t.Errorf("expected MaxChars=1000, got %d", cfg.Chunk.MaxChars)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Embedding.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.Embedding.MaxAttempts)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("expected Timeout=45s, got %s", cfg.LLM.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "coursetutor.yaml")

	content := `
chunk:
  max_chars: 400
retrieve:
  top_k: 8
llm:
  provider: anthropic
  model: claude-3-haiku
  timeout: 30s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.MaxChars != 400 {
		t.Errorf("expected MaxChars=400, got %d", cfg.Chunk.MaxChars)
	}
	if cfg.Retrieve.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Retrieve.TopK)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Model != "claude-3-haiku" {
		t.Errorf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %s", cfg.LLM.Timeout)
	}
	// untouched sections keep their defaults
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("expected default BatchSize=64, got %d", cfg.Embedding.BatchSize)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "coursetutor.yaml")
	if err := os.WriteFile(configPath, []byte("chunk: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".coursetutor"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".coursetutor", "config.yaml")

	content := `
assistant:
  course_name: Sigma WDT
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Assistant.CourseName != "Sigma WDT" {
		t.Errorf("expected CourseName=Sigma WDT, got %s", cfg.Assistant.CourseName)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("EMBEDDINGS_PATH", "/data/embeddings.db")
	t.Setenv("EMBEDDING_MODEL", "bge-m3")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "llama3.2")
	t.Setenv("OLLAMA_URL", "http://ollama:11434")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Store.Path != "/data/embeddings.db" {
		t.Errorf("store path not overridden: %s", cfg.Store.Path)
	}
	if cfg.Embedding.Model != "bge-m3" {
		t.Errorf("embedding model not overridden: %s", cfg.Embedding.Model)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3.2" {
		t.Errorf("llm not overridden: %+v", cfg.LLM)
	}
	if cfg.LLM.BaseURL != "http://ollama:11434" {
		t.Errorf("expected ollama base url, got %q", cfg.LLM.BaseURL)
	}
	if cfg.Embedding.BaseURL != "" {
		t.Errorf("openai embedding base url should stay empty, got %q", cfg.Embedding.BaseURL)
	}
}

func TestLLMConfigWithProvider(t *testing.T) {
	base := DefaultConfig().LLM

	same := base.WithProvider("openai")
	if same != base {
		t.Errorf("same provider should not change config: %+v", same)
	}

	switched := base.WithProvider("anthropic")
	if switched.Provider != "anthropic" {
		t.Errorf("provider not switched: %s", switched.Provider)
	}
	if switched.Model != "" || switched.APIKeyEnv != "" || switched.BaseURL != "" {
		t.Errorf("provider specific fields should be cleared: %+v", switched)
	}
	if switched.Temperature != base.Temperature || switched.Timeout != base.Timeout {
		t.Error("generation settings should be kept")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COURSETUTOR_TEST_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COURSETUTOR_TEST_KEY", "")
	os.Unsetenv("COURSETUTOR_TEST_KEY")

	if err := LoadDotEnv(dir); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("COURSETUTOR_TEST_KEY"); got != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", got)
	}

	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Errorf("missing .env should not fail: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "voyage" }},
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"zero top_k", func(c *Config) { c.Retrieve.TopK = 0 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"zero concurrency", func(c *Config) { c.Embedding.Concurrency = 0 }},
		{"empty model", func(c *Config) { c.Embedding.Model = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StorePath("/home/user/course")
	expected := filepath.Join("/home/user/course", ".coursetutor", "embeddings.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "/abs/store.db"
	if got := cfg.StorePath("/home/user/course"); got != "/abs/store.db" {
		t.Errorf("absolute path should be kept, got %s", got)
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "coursetutor.yaml") {
		t.Errorf("unexpected path %s", path)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.LLM.Timeout != def.LLM.Timeout || cfg.Embedding.Model != def.Embedding.Model ||
		cfg.Chunk.MaxChars != def.Chunk.MaxChars || cfg.Store.Path != def.Store.Path {
		t.Errorf("saved config does not round-trip: %+v", cfg)
	}

	if _, err := WriteDefault(dir, false); err == nil {
		t.Error("expected error when config already exists")
	}

	if err := os.WriteFile(path, []byte("chunk:\n  max_chars: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteDefault(dir, true); err != nil {
		t.Fatalf("force overwrite failed: %v", err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunk.MaxChars != def.Chunk.MaxChars {
		t.Errorf("force did not overwrite, max_chars = %d", cfg.Chunk.MaxChars)
	}
}
