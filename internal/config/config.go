package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fractalmind-ai/labelkit/internal/embedding"
	"github.com/fractalmind-ai/labelkit/internal/word2vec"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Embedding *EmbeddingConfig `yaml:"embedding"`
	Gateway   *GatewayConfig   `yaml:"gateway"`
}

// EmbeddingConfig contains word-vector and model settings
type EmbeddingConfig struct {
	// VectorPath points at a local word2vec-format file. When empty,
	// VectorURL/VectorSHA256 describe a downloadable file instead.
	VectorPath   string `yaml:"vectorPath,omitempty"`
	VectorID     string `yaml:"vectorId,omitempty"`
	VectorURL    string `yaml:"vectorUrl,omitempty"`
	VectorSHA256 string `yaml:"vectorSha256,omitempty"`
	CacheDir     string `yaml:"cacheDir,omitempty"`

	// Binary forces the binary word2vec format; Limit caps loaded words.
	Binary bool `yaml:"binary,omitempty"`
	Limit  int  `yaml:"limit,omitempty"`

	SequenceLength embedding.SequenceLength `yaml:"sequenceLength,omitempty"`

	// TokenizerPath selects a HuggingFace tokenizer.json; whitespace
	// splitting is used when empty.
	TokenizerPath string `yaml:"tokenizerPath,omitempty"`
	Lowercase     bool   `yaml:"lowercase,omitempty"`
	AddBosEos     bool   `yaml:"addBosEos,omitempty"`
}

// GatewayConfig contains gateway settings
type GatewayConfig struct {
	Port           int      `yaml:"port"`
	Bind           string   `yaml:"bind"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// CacheSize is the number of per-text embeddings kept in the LRU.
	CacheSize int `yaml:"cacheSize,omitempty"`
}

// ResolvedSequenceLength returns the configured sequence length, with
// auto as the default.
func (c *EmbeddingConfig) ResolvedSequenceLength() embedding.SequenceLength {
	if c == nil || c.SequenceLength.Validate() != nil {
		return embedding.AutoLength()
	}
	return c.SequenceLength
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Embedding: &EmbeddingConfig{
			SequenceLength: embedding.AutoLength(),
		},
		Gateway: &GatewayConfig{
			Port:      18790,
			Bind:      "127.0.0.1",
			CacheSize: 1024,
		},
	}
}

func (c *Config) validate() error {
	if c.Embedding != nil {
		if id := strings.TrimSpace(c.Embedding.VectorID); id != "" {
			if err := word2vec.ValidateVectorID(id); err != nil {
				return fmt.Errorf("embedding.vectorId: %w", err)
			}
		}
		if c.Embedding.Limit < 0 {
			return fmt.Errorf("embedding.limit must not be negative")
		}
		if strings.TrimSpace(c.Embedding.VectorURL) != "" && strings.TrimSpace(c.Embedding.VectorSHA256) == "" {
			return fmt.Errorf("embedding.vectorSha256 is required with embedding.vectorUrl")
		}
	}
	if c.Gateway != nil {
		if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
			return fmt.Errorf("gateway.port %d out of range", c.Gateway.Port)
		}
		if c.Gateway.CacheSize < 0 {
			return fmt.Errorf("gateway.cacheSize must not be negative")
		}
	}
	return nil
}
