package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrMissingCredentials is returned by Validate when a required key is absent.
var ErrMissingCredentials = errors.New("missing required credentials")

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ResearchConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c ResearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	// TransactionRetrySeconds bounds the driver's own retry of one managed
	// transaction. Sync retries on top of it with [retry].
	TransactionRetrySeconds int `toml:"transaction_retry_seconds"`
}

func (c Neo4jConfig) TransactionRetry() time.Duration {
	return time.Duration(c.TransactionRetrySeconds) * time.Second
}

// Enabled reports whether graph sync is configured. A missing URI or
// password disables sync rather than failing startup.
func (c Neo4jConfig) Enabled() bool {
	return c.URI != "" && c.Password != ""
}

type StorageConfig struct {
	Dir     string `toml:"dir"`
	LogsDir string `toml:"logs_dir"`
}

func (c StorageConfig) HistoryFile() string   { return filepath.Join(c.Dir, "processed_history.log") }
func (c StorageConfig) TelemetryFile() string { return filepath.Join(c.Dir, "telemetry.jsonl") }
func (c StorageConfig) PendingFile() string   { return filepath.Join(c.Dir, "pending_sync.log") }

type LimitsConfig struct {
	StrategistChars int `toml:"strategist_chars"`
	ArchitectChars  int `toml:"architect_chars"`
	RefinerChars    int `toml:"refiner_chars"`
	MaxQuestions    int `toml:"max_questions"`
}

type ScoutConfig struct {
	Concurrency int `toml:"concurrency"`
}

type RefinerConfig struct {
	BatchSize int `toml:"batch_size"`
}

type RetryConfig struct {
	MaxAttempts      int `toml:"max_attempts"`
	InitialBackoffMs int `toml:"initial_backoff_ms"`
	MaxBackoffMs     int `toml:"max_backoff_ms"`
}

func (c RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond
}

func (c RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMs) * time.Millisecond
}

type PipelineConfig struct {
	MarkOnSyncFailure bool `toml:"mark_on_sync_failure"`
}

type LogConfig struct {
	Mode  string `toml:"mode"`
	Level string `toml:"level"`
}

// TracingConfig selects the span exporter. With no Endpoint spans go to
// stdout.
type TracingConfig struct {
	Enabled     bool    `toml:"enabled"`
	ServiceName string  `toml:"service_name"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	Ratio       float64 `toml:"ratio"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Research ResearchConfig `toml:"research"`
	Neo4j    Neo4jConfig    `toml:"neo4j"`
	Storage  StorageConfig  `toml:"storage"`
	Limits   LimitsConfig   `toml:"limits"`
	Scout    ScoutConfig    `toml:"scout"`
	Refiner  RefinerConfig  `toml:"refiner"`
	Retry    RetryConfig    `toml:"retry"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Log      LogConfig      `toml:"log"`
	Tracing  TracingConfig  `toml:"tracing"`
	Server   ServerConfig   `toml:"server"`
	Prompts  PromptsConfig  `toml:"prompts"`
}

// Default returns a configuration with every tunable populated.
func Default() *Config {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, "storage", "downloads", "yt_transcripts")
	return &Config{
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash-exp",
			TimeoutSeconds: 120,
		},
		Research: ResearchConfig{
			BaseURL:        "https://api.perplexity.ai",
			Model:          "sonar",
			TimeoutSeconds: 60,
		},
		Neo4j: Neo4jConfig{User: "neo4j", TransactionRetrySeconds: 5},
		Storage: StorageConfig{
			Dir:     dir,
			LogsDir: filepath.Join(dir, "logs"),
		},
		Limits: LimitsConfig{
			StrategistChars: 15000,
			ArchitectChars:  5000,
			RefinerChars:    5000,
			MaxQuestions:    5,
		},
		Scout:   ScoutConfig{Concurrency: 1},
		Refiner: RefinerConfig{BatchSize: 5},
		Retry: RetryConfig{
			MaxAttempts:      3,
			InitialBackoffMs: 500,
			MaxBackoffMs:     8000,
		},
		Log:     LogConfig{Mode: "dev", Level: "info"},
		Tracing: TracingConfig{ServiceName: "profitgraph", Ratio: 1},
		Server:  ServerConfig{Port: "8080"},
		Prompts: DefaultPrompts(),
	}
}

// Load reads a TOML file on top of Default. A missing file is not an error
// when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.Prompts = cfg.Prompts.withDefaults()

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables. lookup is
// usually os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	set(&c.LLM.Provider, "LLM_PROVIDER")
	set(&c.LLM.Model, "LLM_MODEL")
	set(&c.LLM.BaseURL, "LLM_BASE_URL")
	set(&c.LLM.APIKey, "LLM_API_KEY", "GEMINI_API_KEY")
	set(&c.Research.APIKey, "SONAR_API_KEY")
	set(&c.Research.BaseURL, "SONAR_BASE_URL")
	set(&c.Neo4j.URI, "NEO4J_URI")
	set(&c.Neo4j.User, "NEO4J_USERNAME", "NEO4J_USER")
	set(&c.Neo4j.Password, "NEO4J_PASSWORD")
	set(&c.Neo4j.Database, "NEO4J_DATABASE")
	set(&c.Log.Mode, "LOG_MODE")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Server.Port, "PORT")
	set(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v, ok := lookup("PROFITGRAPH_STORAGE_DIR"); ok && strings.TrimSpace(v) != "" {
		c.Storage.Dir = strings.TrimSpace(v)
		c.Storage.LogsDir = filepath.Join(c.Storage.Dir, "logs")
	}
	if v, ok := lookup("SCOUT_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Scout.Concurrency = n
		}
	}
	if v, ok := lookup("OTEL_ENABLED"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			c.Tracing.Enabled = true
		}
	}
}

// Validate fails fast on missing credentials for a pipeline run. Ollama
// needs no key; Neo4j is optional and disables sync when absent.
func (c *Config) Validate() error {
	return c.validate(true, false)
}

// ValidateRefiner checks what a refinement pass needs: the generation key
// and Neo4j. The research key is not required.
func (c *Config) ValidateRefiner() error {
	return c.validate(false, true)
}

func (c *Config) validate(research, graph bool) error {
	var missing []string
	provider := strings.ToLower(c.LLM.Provider)
	if c.LLM.APIKey == "" && provider != "ollama" {
		missing = append(missing, "llm.api_key (GEMINI_API_KEY / LLM_API_KEY)")
	}
	if research && c.Research.APIKey == "" {
		missing = append(missing, "research.api_key (SONAR_API_KEY)")
	}
	if graph && !c.Neo4j.Enabled() {
		missing = append(missing, "neo4j.uri and neo4j.password (NEO4J_URI / NEO4J_PASSWORD)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir must be set")
	}
	if c.Storage.LogsDir == "" {
		c.Storage.LogsDir = filepath.Join(c.Storage.Dir, "logs")
	}
	if c.Scout.Concurrency <= 0 {
		c.Scout.Concurrency = 1
	}
	if c.Refiner.BatchSize <= 0 {
		c.Refiner.BatchSize = 5
	}
	return nil
}
