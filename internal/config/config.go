package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/artifact/source"
	"github.com/kailas-cloud/gamerec/internal/engine"
	"github.com/kailas-cloud/gamerec/internal/features"
	"github.com/kailas-cloud/gamerec/internal/modelstore"
)

// Config holds the gamerec configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Model     ModelConfig     `yaml:"model"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Training  TrainingConfig  `yaml:"training"`
	Serving   ServingConfig   `yaml:"serving"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ModelConfig holds training settings.
type ModelConfig struct {
	MaxCorpusSize int              `yaml:"max_corpus_size"`
	Workers       int              `yaml:"workers"`
	Features      *features.Config `yaml:"features"`
}

// Engine returns the engine configuration.
func (m ModelConfig) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.MaxCorpusSize = m.MaxCorpusSize
	cfg.Workers = m.Workers
	if m.Features != nil {
		cfg.Features = *m.Features
	}
	return cfg
}

// ArtifactsConfig holds the artifact sources and names.
type ArtifactsConfig struct {
	Primary  source.Config          `yaml:"primary"`
	Fallback source.Config          `yaml:"fallback"`
	Names    modelstore.Names       `yaml:"names"`
	Breaker  artifact.BreakerConfig `yaml:"breaker"`
}

// TrainingConfig points the offline trainer at its corpus.
type TrainingConfig struct {
	CorpusPath   string `yaml:"corpus_path"`
	CorpusObject string `yaml:"corpus_object"` // read from the primary source
}

// ServingConfig holds request shaping limits.
type ServingConfig struct {
	DefaultTopK     int `yaml:"default_top_k"`
	MaxTopK         int `yaml:"max_top_k"`
	SummaryPreview  int `yaml:"summary_preview"`
	SearchLimit     int `yaml:"search_limit"`
	MaxSearchLimit  int `yaml:"max_search_limit"`
	MaxQueryLength  int `yaml:"max_query_length"`
	StartupTimeoutS int `yaml:"startup_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	def := engine.DefaultConfig()
	if c.Model.MaxCorpusSize <= 0 {
		c.Model.MaxCorpusSize = def.MaxCorpusSize
	}
	if c.Model.Workers <= 0 {
		c.Model.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Model.Features == nil {
		f := features.DefaultConfig()
		c.Model.Features = &f
	}

	names := modelstore.DefaultNames()
	if c.Artifacts.Names.Engine == "" {
		c.Artifacts.Names.Engine = names.Engine
	}
	if c.Artifacts.Names.Extractor == "" {
		c.Artifacts.Names.Extractor = names.Extractor
	}
	br := artifact.DefaultBreakerConfig()
	if c.Artifacts.Breaker.Name == "" {
		c.Artifacts.Breaker.Name = br.Name
	}
	if c.Artifacts.Breaker.MaxRequests == 0 {
		c.Artifacts.Breaker.MaxRequests = br.MaxRequests
	}
	if c.Artifacts.Breaker.Interval <= 0 {
		c.Artifacts.Breaker.Interval = br.Interval
	}
	if c.Artifacts.Breaker.Timeout <= 0 {
		c.Artifacts.Breaker.Timeout = br.Timeout
	}
	if c.Artifacts.Breaker.FailureThreshold == 0 {
		c.Artifacts.Breaker.FailureThreshold = br.FailureThreshold
	}

	if c.Serving.DefaultTopK <= 0 {
		c.Serving.DefaultTopK = 10
	}
	if c.Serving.MaxTopK <= 0 {
		c.Serving.MaxTopK = 50
	}
	if c.Serving.SummaryPreview <= 0 {
		c.Serving.SummaryPreview = 200
	}
	if c.Serving.SearchLimit <= 0 {
		c.Serving.SearchLimit = 20
	}
	if c.Serving.MaxSearchLimit <= 0 {
		c.Serving.MaxSearchLimit = 100
	}
	if c.Serving.MaxQueryLength <= 0 {
		c.Serving.MaxQueryLength = 1000
	}
	if c.Serving.StartupTimeoutS <= 0 {
		c.Serving.StartupTimeoutS = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !c.Artifacts.Primary.Enabled() && !c.Artifacts.Fallback.Enabled() {
		return fmt.Errorf("artifacts: at least one of primary or fallback must be configured")
	}
	if err := c.Artifacts.Primary.Validate(); err != nil {
		return fmt.Errorf("artifacts.primary: %w", err)
	}
	if err := c.Artifacts.Fallback.Validate(); err != nil {
		return fmt.Errorf("artifacts.fallback: %w", err)
	}
	if c.Artifacts.Names.Engine == c.Artifacts.Names.Extractor {
		return fmt.Errorf("artifacts.names: engine and extractor must differ")
	}
	if f := c.Model.Features; f != nil {
		if err := validateTFIDF("model.features.summary", f.Summary); err != nil {
			return err
		}
		if err := validateTFIDF("model.features.name", f.Name); err != nil {
			return err
		}
	}
	if c.Serving.DefaultTopK > c.Serving.MaxTopK {
		return fmt.Errorf("serving.default_top_k (%d) exceeds serving.max_top_k (%d)",
			c.Serving.DefaultTopK, c.Serving.MaxTopK)
	}
	if c.Serving.SearchLimit > c.Serving.MaxSearchLimit {
		return fmt.Errorf("serving.search_limit (%d) exceeds serving.max_search_limit (%d)",
			c.Serving.SearchLimit, c.Serving.MaxSearchLimit)
	}
	return nil
}

func validateTFIDF(path string, c features.TFIDFConfig) error {
	if c.MaxFeatures < 0 {
		return fmt.Errorf("%s.max_features must be >= 0, got %d", path, c.MaxFeatures)
	}
	if c.NgramMin < 0 || c.NgramMax < c.NgramMin {
		return fmt.Errorf("%s: invalid ngram range [%d, %d]", path, c.NgramMin, c.NgramMax)
	}
	if c.MaxDF < 0 || c.MaxDF > 1 {
		return fmt.Errorf("%s.max_df must be within [0, 1], got %v", path, c.MaxDF)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
