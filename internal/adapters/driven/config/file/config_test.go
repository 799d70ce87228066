package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 200, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 10, cfg.Retrieval.BatchSize)
	assert.Equal(t, 5, cfg.Retrieval.MaxWorkers)
	assert.Equal(t, 3, cfg.Retrieval.MaxRetries)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.7, cfg.Retrieval.Threshold, 1e-9)
	assert.Equal(t, 3584, cfg.Embedding.Dimensions)
	assert.Equal(t, "deepseek-v3-0324", cfg.Reasoning.Model)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Store.DataDir)
	assert.Equal(t, filepath.Join(dir, "data", "vectors.db"), cfg.SnapshotPath())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
[retrieval]
top_k = 8
threshold = 0.5

[embedding]
base_url = "http://localhost:9000/embed/text"
dimensions = 1024
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.5, cfg.Retrieval.Threshold, 1e-9)
	assert.Equal(t, "http://localhost:9000/embed/text", cfg.Embedding.BaseURL)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)

	// Untouched sections keep their defaults.
	assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
	assert.Equal(t, "deepseek-v3-0324", cfg.Reasoning.Model)
	assert.Equal(t, 180, cfg.Workflow.StageTimeoutSeconds)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml ["), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_APIKeysFromEnvironment(t *testing.T) {
	t.Setenv(EnvGMEAPIKey, "gme-secret")
	t.Setenv(EnvDeepSeekAPIKey, "ds-secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gme-secret", cfg.Embedding.APIKey)
	assert.Equal(t, "ds-secret", cfg.Reasoning.APIKey)
}

func TestLoad_APIKeysNotReadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[reasoning]
api_key = "leaked"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	t.Setenv(EnvDeepSeekAPIKey, "")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Reasoning.APIKey)
}

func TestConfig_TimeoutHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "30s", cfg.EmbeddingTimeout().String())
	assert.Equal(t, "2m0s", cfg.ReasoningTimeout().String())
	assert.Equal(t, "3m0s", cfg.StageTimeout().String())
}
