package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, 1500, config.Chunking.ChunkSize)
	assert.Equal(t, 200, config.Chunking.ChunkOverlap)
	assert.Equal(t, 100, config.Embedding.BatchSize)
	assert.Equal(t, 3, config.Embedding.MaxRetries)
	assert.Equal(t, time.Second, config.Embedding.RetryDelay)
	assert.Equal(t, 1, config.Ingest.Concurrency)
	assert.Contains(t, config.Corpus.Extensions, ".pdf")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
corpus:
  path: /data/corpus
  extensions: [".pdf"]
  max_file_size_mb: 25
chunking:
  chunk_size: 800
  chunk_overlap: 100
embedding:
  host: http://localhost:11434/v1
  model: embeddinggemma
  batch_size: 16
store:
  path: /data/kb
ingest:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/corpus", config.Corpus.Path)
	assert.Equal(t, []string{".pdf"}, config.Corpus.Extensions)
	assert.Equal(t, 25, config.Corpus.MaxFileSizeMB)
	assert.Equal(t, 800, config.Chunking.ChunkSize)
	assert.Equal(t, 100, config.Chunking.ChunkOverlap)
	assert.Equal(t, "embeddinggemma", config.Embedding.Model)
	assert.Equal(t, 16, config.Embedding.BatchSize)
	assert.Equal(t, "/data/kb", config.Store.Path)
	assert.Equal(t, 4, config.Ingest.Concurrency)

	// Defaults still fill unset fields
	assert.Equal(t, 3, config.Embedding.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KNOWLEDGE_CORPUS_PATH", "/env/corpus")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	config := Default()
	assert.Equal(t, "/env/corpus", config.Corpus.Path)
	assert.Equal(t, "sk-test", config.Embedding.APIKey)
}

func TestValidate(t *testing.T) {
	corpusDir := t.TempDir()

	config := Default()
	config.Corpus.Path = corpusDir
	config.Store.Path = filepath.Join(t.TempDir(), "kb")
	require.NoError(t, config.Validate())
}

func TestValidate_Errors(t *testing.T) {
	corpusDir := t.TempDir()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing corpus path", func(c *Config) { c.Corpus.Path = "" }},
		{"corpus path absent", func(c *Config) { c.Corpus.Path = filepath.Join(corpusDir, "nope") }},
		{"missing store path", func(c *Config) { c.Store.Path = "" }},
		{"overlap >= size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = -1 }},
		{"zero concurrency", func(c *Config) { c.Ingest.Concurrency = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			config.Corpus.Path = corpusDir
			config.Store.Path = "/tmp/kb"
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
