// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cra/pkg/chunk"
	"github.com/kraklabs/cra/pkg/embed"
)

// Default connection settings.
const (
	DefaultQdrantURL  = "http://localhost:6333"
	DefaultCollection = "cra_chunks"
)

// Config holds the CRA project configuration, persisted as
// .cra/config.yaml in the working directory.
type Config struct {
	// OpenAIAPIKey authenticates embedding and completion calls. Usually
	// left empty in the file and supplied via CRA_OPENAI_API_KEY or
	// OPENAI_API_KEY instead, so the key never lands on disk.
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`

	// OpenAIBaseURL overrides the provider endpoint for OpenAI-compatible
	// servers. Empty selects the provider default.
	OpenAIBaseURL string `yaml:"openai_base_url,omitempty"`

	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	ChatModel          string `yaml:"chat_model,omitempty"`

	QdrantURL  string `yaml:"qdrant_url"`
	Collection string `yaml:"collection"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	chunking := chunk.DefaultOptions()
	return &Config{
		EmbeddingModel:     embed.DefaultModel,
		EmbeddingDimension: embed.DefaultDimension,
		QdrantURL:          DefaultQdrantURL,
		Collection:         DefaultCollection,
		ChunkSize:          chunking.ChunkSize,
		ChunkOverlap:       chunking.ChunkOverlap,
	}
}

// ConfigDir returns the .cra directory under dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".cra")
}

// ConfigPath returns the config file path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "config.yaml")
}

// LoadConfig reads the configuration from path, or from ./.cra/config.yaml
// when path is empty. A missing file is not an error: defaults apply, so
// the tool works against a local Qdrant with only an API key in the
// environment. The environment always wins for the API key.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user's own --config flag
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyDefaults fills fields a partial config file left empty.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = def.EmbeddingModel
	}
	if cfg.EmbeddingDimension <= 0 {
		cfg.EmbeddingDimension = def.EmbeddingDimension
	}
	if cfg.QdrantURL == "" {
		cfg.QdrantURL = def.QdrantURL
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	// The splitter rejects overlaps above half the chunk size; fall back to
	// the default ratio rather than failing every later command.
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap*2 > cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 6
	}
}

// applyEnv overrides the API key from the environment. CRA_OPENAI_API_KEY
// takes precedence over the generic OPENAI_API_KEY.
func applyEnv(cfg *Config) {
	if key := os.Getenv("CRA_OPENAI_API_KEY"); key != "" {
		cfg.OpenAIAPIKey = key
		return
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAIAPIKey = key
	}
}
