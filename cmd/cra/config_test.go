// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CRA_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	def := DefaultConfig()
	if cfg.QdrantURL != def.QdrantURL {
		t.Errorf("QdrantURL = %q, want %q", cfg.QdrantURL, def.QdrantURL)
	}
	if cfg.Collection != def.Collection {
		t.Errorf("Collection = %q, want %q", cfg.Collection, def.Collection)
	}
	if cfg.EmbeddingDimension != def.EmbeddingDimension {
		t.Errorf("EmbeddingDimension = %d, want %d", cfg.EmbeddingDimension, def.EmbeddingDimension)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Errorf("OpenAIAPIKey = %q, want empty", cfg.OpenAIAPIKey)
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	t.Setenv("CRA_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	original := DefaultConfig()
	original.Collection = "my_project"
	original.QdrantURL = "http://qdrant.internal:6333"
	original.ChunkSize = 800

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Collection != "my_project" {
		t.Errorf("Collection = %q, want %q", loaded.Collection, "my_project")
	}
	if loaded.QdrantURL != "http://qdrant.internal:6333" {
		t.Errorf("QdrantURL = %q", loaded.QdrantURL)
	}
	if loaded.ChunkSize != 800 {
		t.Errorf("ChunkSize = %d, want 800", loaded.ChunkSize)
	}
}

func TestLoadConfig_PartialFileGetsDefaults(t *testing.T) {
	t.Setenv("CRA_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("collection: custom\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Collection != "custom" {
		t.Errorf("Collection = %q, want %q", cfg.Collection, "custom")
	}
	if cfg.QdrantURL != DefaultQdrantURL {
		t.Errorf("QdrantURL = %q, want default %q", cfg.QdrantURL, DefaultQdrantURL)
	}
	if cfg.ChunkSize <= 0 {
		t.Errorf("ChunkSize = %d, want default", cfg.ChunkSize)
	}
}

func TestLoadConfig_OversizedOverlapFallsBack(t *testing.T) {
	t.Setenv("CRA_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 100\nchunk_overlap: 90\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ChunkSize != 100 {
		t.Errorf("ChunkSize = %d, want 100", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap*2 > cfg.ChunkSize {
		t.Errorf("ChunkOverlap = %d, must be at most half of ChunkSize %d", cfg.ChunkOverlap, cfg.ChunkSize)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("collection: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() should fail on malformed YAML")
	}
}

func TestLoadConfig_EnvOverridesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("openai_api_key: from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("CRA key wins over generic key", func(t *testing.T) {
		t.Setenv("CRA_OPENAI_API_KEY", "from-cra-env")
		t.Setenv("OPENAI_API_KEY", "from-openai-env")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.OpenAIAPIKey != "from-cra-env" {
			t.Errorf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "from-cra-env")
		}
	})

	t.Run("generic key overrides file", func(t *testing.T) {
		t.Setenv("CRA_OPENAI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "from-openai-env")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.OpenAIAPIKey != "from-openai-env" {
			t.Errorf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "from-openai-env")
		}
	})

	t.Run("file key survives empty environment", func(t *testing.T) {
		t.Setenv("CRA_OPENAI_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.OpenAIAPIKey != "from-file" {
			t.Errorf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "from-file")
		}
	})
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/repo")
	want := filepath.Join("/repo", ".cra", "config.yaml")
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}
