package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables holding secrets. Secrets stay out of the TOML file.
const (
	EnvGMEAPIKey      = "GME_API_KEY"
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
)

// EmbeddingConfig configures the embedding endpoint.
type EmbeddingConfig struct {
	// BaseURL is the full embedding endpoint URL.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name, informational only.
	Model string `toml:"model"`

	// Dimensions is the expected vector size.
	Dimensions int `toml:"dimensions"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// ReasoningConfig configures the reasoning model endpoint.
type ReasoningConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the chat model to use.
	Model string `toml:"model"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// RetrievalConfig configures chunking, embedding throughput and search.
type RetrievalConfig struct {
	// ChunkSize is the chunk length in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in characters.
	// Zero selects the default; construct a chunker directly for no overlap.
	ChunkOverlap int `toml:"chunk_overlap"`

	// BatchSize is how many chunks one embedding call carries.
	BatchSize int `toml:"batch_size"`

	// MaxWorkers caps concurrent embedding calls during ingest.
	MaxWorkers int `toml:"max_workers"`

	// MaxRetries bounds retry attempts per embedding batch.
	MaxRetries int `toml:"max_retries"`

	// RatePerSecond throttles embedding calls to avoid API rate limits.
	RatePerSecond float64 `toml:"rate_per_second"`

	// TopK is how many passages a query returns at most.
	TopK int `toml:"top_k"`

	// Threshold is the minimum cosine similarity for a passage to count.
	Threshold float64 `toml:"threshold"`
}

// WorkflowConfig configures the diagnostic workflow.
type WorkflowConfig struct {
	// StageTimeoutSeconds bounds each workflow stage.
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`

	// MaxTokens caps generation length per stage.
	MaxTokens int `toml:"max_tokens"`

	// Temperature is the generation temperature for all stages.
	Temperature float64 `toml:"temperature"`
}

// StoreConfig configures on-disk state.
type StoreConfig struct {
	// DataDir is where snapshots and the session archive live.
	DataDir string `toml:"data_dir"`

	// SnapshotFile is the vector snapshot filename inside DataDir.
	SnapshotFile string `toml:"snapshot_file"`
}

// Config is the full CardioMind configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Reasoning ReasoningConfig `toml:"reasoning"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Workflow  WorkflowConfig  `toml:"workflow"`
	Store     StoreConfig     `toml:"store"`
}

// Default returns the fully defaulted configuration.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Model:          "gme-qwen2-vl-7b",
			Dimensions:     3584,
			TimeoutSeconds: 30,
		},
		Reasoning: ReasoningConfig{
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-v3-0324",
			TimeoutSeconds: 120,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			BatchSize:     10,
			MaxWorkers:    5,
			MaxRetries:    3,
			RatePerSecond: 10,
			TopK:          5,
			Threshold:     0.7,
		},
		Workflow: WorkflowConfig{
			StageTimeoutSeconds: 180,
			MaxTokens:           4096,
			Temperature:         0.3,
		},
		Store: StoreConfig{
			SnapshotFile: "vectors.db",
		},
	}
}

// Load reads the config file at configDir/config.toml, fills every unset
// field with its default, and pulls API keys from the environment.
// If configDir is empty, defaults to ~/.cardiomind.
func Load(configDir string) (Config, error) {
	cfg := Default()

	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".cardiomind")
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = filepath.Join(configDir, "data")
	}

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		// No config file yet - run on defaults
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyDefaults(&cfg, configDir)

	cfg.Embedding.APIKey = os.Getenv(EnvGMEAPIKey)
	cfg.Reasoning.APIKey = os.Getenv(EnvDeepSeekAPIKey)

	return cfg, nil
}

// applyDefaults backfills zero values left by a partial config file.
func applyDefaults(cfg *Config, configDir string) {
	def := Default()

	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = def.Embedding.Dimensions
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = def.Embedding.TimeoutSeconds
	}

	if cfg.Reasoning.BaseURL == "" {
		cfg.Reasoning.BaseURL = def.Reasoning.BaseURL
	}
	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = def.Reasoning.Model
	}
	if cfg.Reasoning.TimeoutSeconds == 0 {
		cfg.Reasoning.TimeoutSeconds = def.Reasoning.TimeoutSeconds
	}

	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = def.Retrieval.ChunkSize
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = def.Retrieval.ChunkOverlap
	}
	if cfg.Retrieval.BatchSize == 0 {
		cfg.Retrieval.BatchSize = def.Retrieval.BatchSize
	}
	if cfg.Retrieval.MaxWorkers == 0 {
		cfg.Retrieval.MaxWorkers = def.Retrieval.MaxWorkers
	}
	if cfg.Retrieval.MaxRetries == 0 {
		cfg.Retrieval.MaxRetries = def.Retrieval.MaxRetries
	}
	if cfg.Retrieval.RatePerSecond == 0 {
		cfg.Retrieval.RatePerSecond = def.Retrieval.RatePerSecond
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = def.Retrieval.Threshold
	}

	if cfg.Workflow.StageTimeoutSeconds == 0 {
		cfg.Workflow.StageTimeoutSeconds = def.Workflow.StageTimeoutSeconds
	}
	if cfg.Workflow.MaxTokens == 0 {
		cfg.Workflow.MaxTokens = def.Workflow.MaxTokens
	}
	if cfg.Workflow.Temperature == 0 {
		cfg.Workflow.Temperature = def.Workflow.Temperature
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = filepath.Join(configDir, "data")
	}
	if cfg.Store.SnapshotFile == "" {
		cfg.Store.SnapshotFile = def.Store.SnapshotFile
	}
}

// EmbeddingTimeout returns the embedding timeout as a duration.
func (c Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSeconds) * time.Second
}

// ReasoningTimeout returns the reasoning timeout as a duration.
func (c Config) ReasoningTimeout() time.Duration {
	return time.Duration(c.Reasoning.TimeoutSeconds) * time.Second
}

// StageTimeout returns the per-stage workflow timeout as a duration.
func (c Config) StageTimeout() time.Duration {
	return time.Duration(c.Workflow.StageTimeoutSeconds) * time.Second
}

// SnapshotPath returns the absolute vector snapshot path.
func (c Config) SnapshotPath() string {
	return filepath.Join(c.Store.DataDir, c.Store.SnapshotFile)
}
