package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Transcripts TranscriptsConfig `yaml:"transcripts"`
	Chunk       ChunkConfig       `yaml:"chunk"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Retrieve    RetrieveConfig    `yaml:"retrieve"`
	LLM         LLMConfig         `yaml:"llm"`
	Assistant   AssistantConfig   `yaml:"assistant"`
	Store       StoreConfig       `yaml:"store"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TranscriptsConfig controls where transcript JSON files are discovered.
type TranscriptsConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type ChunkConfig struct {
	MaxChars int `yaml:"max_chars"` // <= 0 keeps each contiguous video run whole
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model       string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL     string `yaml:"base_url"`    // empty uses the provider default
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`   // 0 infers from the first response
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"` // Filter results below this score (0 = disabled)
}

// LLMConfig selects and parameterizes the answer backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "deepseek", "anthropic", "ollama"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AssistantConfig struct {
	CourseName string `yaml:"course_name"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Embedding and LLM providers understood by the adapters.
var (
	EmbeddingProviders = []string{"openai", "ollama", "mock"}
	LLMProviders       = []string{"openai", "deepseek", "anthropic", "ollama"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Transcripts: TranscriptsConfig{
			Dir:      "transcripts",
			Includes: []string{"**/*.json"},
			Excludes: []string{"**/.*/**"},
		},
		Chunk: ChunkConfig{
			MaxChars: 1000,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			BatchSize:   64,
			Concurrency: 4,
			MaxAttempts: 3,
		},
		Retrieve: RetrieveConfig{
			TopK: 5,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     45 * time.Second,
		},
		Assistant: AssistantConfig{
			CourseName: "web development",
		},
		Store: StoreConfig{
			Path: filepath.Join(".coursetutor", "embeddings.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for coursetutor.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "coursetutor.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".coursetutor", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadDotEnv loads KEY=VALUE pairs from dir/.env into the process
// environment without overriding variables that are already set.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment variables the original
// deployment used.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("EMBEDDINGS_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM = c.LLM.WithProvider(v)
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		if c.LLM.Provider == "ollama" {
			c.LLM.BaseURL = v
		}
		if c.Embedding.Provider == "ollama" {
			c.Embedding.BaseURL = v
		}
	}
}

// Validate rejects settings the core cannot run with.
func (c *Config) Validate() error {
	if !contains(EmbeddingProviders, c.Embedding.Provider) {
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}
	if !contains(LLMProviders, c.LLM.Provider) {
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Concurrency <= 0 {
		return fmt.Errorf("embedding.concurrency must be positive, got %d", c.Embedding.Concurrency)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding.dimension must not be negative")
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	return nil
}

// WithProvider returns a copy of l targeting provider. Switching providers
// clears the model, base URL and key variable so the provider defaults apply.
func (l LLMConfig) WithProvider(provider string) LLMConfig {
	if provider == "" || provider == l.Provider {
		return l
	}
	l.Provider = provider
	l.Model = ""
	l.BaseURL = ""
	l.APIKeyEnv = ""
	return l
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteDefault writes the default configuration to dir/coursetutor.yaml and
// returns its path. An existing file is only replaced when force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := filepath.Join(dir, "coursetutor.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := DefaultConfig().Save(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// StorePath resolves the store artifact path against the project directory.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// TranscriptsDir resolves the transcript directory against the project directory.
func (c *Config) TranscriptsDir(dir string) string {
	if filepath.IsAbs(c.Transcripts.Dir) {
		return c.Transcripts.Dir
	}
	return filepath.Join(dir, c.Transcripts.Dir)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
