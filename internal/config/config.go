// Package config loads polyglot settings from flags, POLYGLOT_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const EnvPrefix = "POLYGLOT"

var KnownServices = []string{"google", "mymemory", "systran", "ollama", "openrouter"}

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled"}

type Config struct {
	HTTPServerPort  int           `mapstructure:"http_server_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	LogJSON  bool   `mapstructure:"log_json"`

	Services         []string `mapstructure:"services"`
	Credentials      string   `mapstructure:"credentials"`
	ProjectID        string   `mapstructure:"project_id"`
	OllamaURL        string   `mapstructure:"ollama_url"`
	OllamaModels     []string `mapstructure:"ollama_models"`
	OpenRouterKey    string   `mapstructure:"openrouter_key"`
	OpenRouterModels []string `mapstructure:"openrouter_models"`
	SystranKey       string   `mapstructure:"systran_key"`
	MyMemoryEmail    string   `mapstructure:"mymemory_email"`

	DB              string        `mapstructure:"db"`
	NoCache         bool          `mapstructure:"no_cache"`
	CacheSize       int           `mapstructure:"cache_size"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ValidateOutput  bool          `mapstructure:"validate_output"`
	DetectLanguages []string      `mapstructure:"detect_languages"`
	DetectMinConf   float64       `mapstructure:"detect_min_confidence"`
	MaxChunkChars   int           `mapstructure:"max_chunk_chars"`
	ContextWords    int           `mapstructure:"context_words"`
	MaxParallel     int           `mapstructure:"max_parallel"`

	Arbiter      bool   `mapstructure:"arbiter"`
	ArbiterModel string `mapstructure:"arbiter_model"`
	ArbiterURL   string `mapstructure:"arbiter_url"`
	Refine       bool   `mapstructure:"refine"`
	RefinerModel string `mapstructure:"refiner_model"`
	RefinerURL   string `mapstructure:"refiner_url"`
}

// SetDefaults registers every key, which also makes each one reachable
// through its environment variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_server_port", 18080)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("max_body_bytes", 0)
	v.SetDefault("metrics_enabled", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_json", false)

	v.SetDefault("services", []string{"google"})
	v.SetDefault("credentials", "")
	v.SetDefault("project_id", "")
	v.SetDefault("ollama_url", "http://localhost:11434")
	v.SetDefault("ollama_models", []string{})
	v.SetDefault("openrouter_key", "")
	v.SetDefault("openrouter_models", []string{})
	v.SetDefault("systran_key", "")
	v.SetDefault("mymemory_email", "")

	v.SetDefault("db", "./data/polyglot.db")
	v.SetDefault("no_cache", false)
	v.SetDefault("cache_size", 1024)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_delay", time.Second)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("validate_output", false)
	// empty means every language lingua knows
	v.SetDefault("detect_languages", []string{})
	v.SetDefault("detect_min_confidence", 0.5)
	v.SetDefault("max_chunk_chars", 4000)
	v.SetDefault("context_words", 25)
	v.SetDefault("max_parallel", 0)

	v.SetDefault("arbiter", false)
	v.SetDefault("arbiter_model", "llama3.2")
	v.SetDefault("arbiter_url", "http://localhost:11434")
	v.SetDefault("refine", false)
	v.SetDefault("refiner_model", "llama3.2")
	v.SetDefault("refiner_url", "http://localhost:11434")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile, or polyglot.yaml from the working directory or
// $HOME/.config/polyglot when configFile is empty, and decodes the result.
// A missing default file is not an error; a missing explicit one is.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("polyglot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "polyglot"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPServerPort < 0 || c.HTTPServerPort > 65535 {
		return errors.Errorf("http_server_port %d out of range", c.HTTPServerPort)
	}
	if c.MaxBodyBytes < 0 {
		return errors.Errorf("max_body_bytes must not be negative, got %d", c.MaxBodyBytes)
	}
	if c.ShutdownTimeout < 0 || c.RetryDelay < 0 || c.RequestTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if !contains(logLevels, strings.ToLower(c.LogLevel)) {
		return errors.Errorf("unknown log_level %q", c.LogLevel)
	}

	if len(c.Services) == 0 {
		return errors.New("at least one service is required")
	}
	for _, s := range c.Services {
		if !contains(KnownServices, s) {
			return errors.Errorf("unknown service %q, expected one of %s", s, strings.Join(KnownServices, ", "))
		}
	}

	if c.MaxAttempts < 1 {
		return errors.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.CacheSize < 0 {
		return errors.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxChunkChars < 0 || c.ContextWords < 0 || c.MaxParallel < 0 {
		return errors.New("max_chunk_chars, context_words and max_parallel must not be negative")
	}
	if c.Arbiter && c.ArbiterModel == "" {
		return errors.New("arbiter_model is required when arbiter is enabled")
	}
	if c.Refine && c.RefinerModel == "" {
		return errors.New("refiner_model is required when refine is enabled")
	}
	if c.DetectMinConf < 0 || c.DetectMinConf > 1 {
		return errors.Errorf("detect_min_confidence must be within [0, 1], got %v", c.DetectMinConf)
	}
	for _, code := range c.DetectLanguages {
		if _, err := language.Parse(code); err != nil {
			return errors.Wrapf(err, "detect_languages: %q", code)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
