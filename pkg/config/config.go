package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports an invalid or unusable setting. It is fatal at
// startup, before any network call is made.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	TavilyAPIKey    string
	Run             RunConfig
	Roles           *Roles
	ConfigDir       string
}

// RunConfig holds the refinement-loop settings.
type RunConfig struct {
	TargetScore   float64 `yaml:"target_score"`
	MaxIterations int     `yaml:"max_iterations"`
	WordCountMin  int     `yaml:"word_count_min"`
	WordCountMax  int     `yaml:"word_count_max"`
	JudgeMode     string  `yaml:"judge_mode"`
	ScoringMode   string  `yaml:"scoring_mode"`
	Compression   string  `yaml:"compression"`
	CacheDir      string  `yaml:"cache_dir"`
	ExportDir     string  `yaml:"export_dir"`
}

// FileConfig represents the structure of ~/.draftloop/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
	Run     RunConfig     `yaml:"run"`
	Models  *Roles        `yaml:"models"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
	Tavily    string `yaml:"tavily"`
}

// Load reads configuration from config files and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return loadFrom(configDir)
}

// LoadFromDir reads configuration rooted at an explicit directory instead of
// the user's home. Environment precedence is unchanged.
func LoadFromDir(dir string) (*Config, error) {
	return loadFrom(dir)
}

func loadFrom(configDir string) (*Config, error) {
	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		TavilyAPIKey:    getEnvOrDefault("TAVILY_API_KEY", fileConfig.APIKeys.Tavily),
		Run:             fileConfig.Run,
		ConfigDir:       configDir,
	}
	applyRunDefaults(&cfg.Run, configDir)
	applyRunEnv(&cfg.Run)

	cfg.Roles = fileConfig.Models
	if cfg.Roles == nil {
		cfg.Roles = DefaultRoles()
	} else {
		applyRoleDefaults(cfg.Roles)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the run settings and role bindings. A nil return means the
// configuration is safe to start with.
func (c *Config) Validate() error {
	r := c.Run
	if r.TargetScore <= 0 || r.TargetScore > 100 {
		return &ConfigurationError{Field: "run.target_score", Reason: fmt.Sprintf("must be in (0, 100], got %g", r.TargetScore)}
	}
	if r.MaxIterations < 1 {
		return &ConfigurationError{Field: "run.max_iterations", Reason: fmt.Sprintf("must be at least 1, got %d", r.MaxIterations)}
	}
	if r.WordCountMin <= 0 || r.WordCountMax < r.WordCountMin {
		return &ConfigurationError{Field: "run.word_count", Reason: fmt.Sprintf("need 0 < min <= max, got [%d, %d]", r.WordCountMin, r.WordCountMax)}
	}
	switch r.JudgeMode {
	case "weighted", "binary":
	default:
		return &ConfigurationError{Field: "run.judge_mode", Reason: fmt.Sprintf("must be weighted or binary, got %q", r.JudgeMode)}
	}
	switch r.ScoringMode {
	case "per-criterion", "single-call":
	default:
		return &ConfigurationError{Field: "run.scoring_mode", Reason: fmt.Sprintf("must be per-criterion or single-call, got %q", r.ScoringMode)}
	}
	switch r.Compression {
	case "rule-based", "citation-filter":
	default:
		return &ConfigurationError{Field: "run.compression", Reason: fmt.Sprintf("must be rule-based or citation-filter, got %q", r.Compression)}
	}
	return c.Roles.Validate()
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

func applyRunDefaults(r *RunConfig, configDir string) {
	if r.TargetScore == 0 {
		r.TargetScore = 89
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = 10
	}
	if r.WordCountMin == 0 {
		r.WordCountMin = 2000
	}
	if r.WordCountMax == 0 {
		r.WordCountMax = 2500
	}
	if r.JudgeMode == "" {
		r.JudgeMode = "weighted"
	}
	if r.ScoringMode == "" {
		r.ScoringMode = "per-criterion"
	}
	if r.Compression == "" {
		r.Compression = "rule-based"
	}
	if r.CacheDir == "" {
		r.CacheDir = filepath.Join(configDir, "cache")
	}
	if r.ExportDir == "" {
		r.ExportDir = filepath.Join(configDir, "runs")
	}
}

func applyRunEnv(r *RunConfig) {
	if v := os.Getenv("DRAFTLOOP_TARGET_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			r.TargetScore = f
		}
	}
	if v := os.Getenv("DRAFTLOOP_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.MaxIterations = n
		}
	}
	if v := os.Getenv("DRAFTLOOP_JUDGE_MODE"); v != "" {
		r.JudgeMode = v
	}
	if v := os.Getenv("DRAFTLOOP_SCORING_MODE"); v != "" {
		r.ScoringMode = v
	}
	if v := os.Getenv("DRAFTLOOP_COMPRESSION"); v != "" {
		r.Compression = v
	}
	if v := os.Getenv("DRAFTLOOP_CACHE_DIR"); v != "" {
		r.CacheDir = v
	}
	if v := os.Getenv("DRAFTLOOP_EXPORT_DIR"); v != "" {
		r.ExportDir = v
	}
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".draftloop")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
