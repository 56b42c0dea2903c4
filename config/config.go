// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads the knowledge-base configuration from a YAML file,
// merges environment overrides, and validates the result before any side
// effect of an ingestion run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/knowledge/core"
)

// ErrConfiguration indicates fatal configuration problems. A run must abort
// before processing any document when this error is returned.
var ErrConfiguration = errors.New("configuration error")

// Config is the explicit configuration object handed to the ingestion
// coordinator. It is never read from ambient global state.
type Config struct {
	Corpus struct {
		Path          string   `yaml:"path"`
		Extensions    []string `yaml:"extensions"`
		MaxFileSizeMB int      `yaml:"max_file_size_mb"`
	} `yaml:"corpus"`

	Chunking struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunking"`

	Embedding struct {
		Host       string        `yaml:"host"`
		Model      string        `yaml:"model"`
		APIKey     string        `yaml:"api_key"`
		BatchSize  int           `yaml:"batch_size"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"embedding"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Ingest struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"ingest"`
}

// Load reads the configuration from path. An empty path falls back to
// config.yaml in the working directory if present, otherwise defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrConfiguration, path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", ErrConfiguration, path, err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

// Default returns the configuration with defaults and environment overrides
// applied, without reading any file.
func Default() *Config {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if len(config.Corpus.Extensions) == 0 {
		config.Corpus.Extensions = []string{".pdf", ".txt", ".md"}
	}
	if config.Corpus.MaxFileSizeMB == 0 {
		config.Corpus.MaxFileSizeMB = 50
	}

	if config.Chunking.ChunkSize == 0 {
		config.Chunking.ChunkSize = 1500
	}
	if config.Chunking.ChunkOverlap == 0 {
		config.Chunking.ChunkOverlap = 200
	}

	if config.Embedding.Host == "" {
		config.Embedding.Host = "https://api.openai.com/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-3-large"
	}
	if config.Embedding.BatchSize == 0 {
		config.Embedding.BatchSize = 100
	}
	if config.Embedding.MaxRetries == 0 {
		config.Embedding.MaxRetries = 3
	}
	if config.Embedding.RetryDelay == 0 {
		config.Embedding.RetryDelay = time.Second
	}

	if config.Ingest.Concurrency == 0 {
		config.Ingest.Concurrency = 1
	}
}

func mergeWithEnv(config *Config) {
	if host := os.Getenv("KNOWLEDGE_EMBEDDING_HOST"); host != "" {
		config.Embedding.Host = host
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if corpus := os.Getenv("KNOWLEDGE_CORPUS_PATH"); corpus != "" {
		config.Corpus.Path = corpus
	}
	if store := os.Getenv("KNOWLEDGE_STORE_PATH"); store != "" {
		config.Store.Path = store
	}
}

// Validate checks that the configuration is complete enough to run an
// ingestion. All problems are fatal: nothing has touched the store yet.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return fmt.Errorf("%w: corpus.path is required", ErrConfiguration)
	}
	if info, err := os.Stat(c.Corpus.Path); err != nil {
		return fmt.Errorf("%w: corpus.path %s: %w", ErrConfiguration, c.Corpus.Path, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: corpus.path %s is not a directory", ErrConfiguration, c.Corpus.Path)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrConfiguration)
	}

	if err := core.ValidateChunkParams(c.Chunking.ChunkSize, c.Chunking.ChunkOverlap); err != nil {
		return fmt.Errorf("%w: chunking: %w", ErrConfiguration, err)
	}

	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrConfiguration)
	}
	if c.Embedding.MaxRetries < 1 {
		return fmt.Errorf("%w: embedding.max_retries must be positive", ErrConfiguration)
	}
	if c.Corpus.MaxFileSizeMB < 1 {
		return fmt.Errorf("%w: corpus.max_file_size_mb must be positive", ErrConfiguration)
	}
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("%w: ingest.concurrency must be positive", ErrConfiguration)
	}

	return nil
}
