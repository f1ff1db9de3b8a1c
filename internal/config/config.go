package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

// EnvPrefix prefixes every environment override, e.g. MINDSCOPE_API_KEY.
const EnvPrefix = "MINDSCOPE"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	GeminiAPIKey    string  `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TopP            float64 `mapstructure:"top_p" yaml:"top_p"`
	TopK            int     `mapstructure:"top_k" yaml:"top_k"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Summarizer
	CategoricalThreshold   float64 `mapstructure:"categorical_threshold" yaml:"categorical_threshold"`
	CategoricalUniqueLimit int     `mapstructure:"categorical_unique_limit" yaml:"categorical_unique_limit"`
	DateLikeThreshold      float64 `mapstructure:"date_like_threshold" yaml:"date_like_threshold"`
	SampleCount            int     `mapstructure:"sample_count" yaml:"sample_count"`

	PersonasDir  string `mapstructure:"personas_dir" yaml:"personas_dir"`
	ModelCatalog string `mapstructure:"model_catalog" yaml:"model_catalog,omitempty"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	ServeAddr    string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Dir returns ~/.mindscope.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".mindscope"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mindscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	gen := ai.DefaultGenerationConfig()
	sc := summarizer.DefaultConfig()

	v.SetDefault("default_provider", ai.ProviderOpenRouter)
	v.SetDefault("default_model", "openai/gpt-4o-mini")
	v.SetDefault("temperature", gen.Temperature)
	v.SetDefault("max_tokens", 4028)
	v.SetDefault("top_p", gen.TopP)
	v.SetDefault("top_k", gen.TopK)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", ai.DefaultOllamaHost)

	v.SetDefault("categorical_threshold", sc.CategoricalThreshold)
	v.SetDefault("categorical_unique_limit", sc.CategoricalUniqueLimit)
	v.SetDefault("date_like_threshold", sc.DateLikeThreshold)
	v.SetDefault("sample_count", summarizer.DefaultOptions().Samples)

	v.SetDefault("log_level", "info")
	v.SetDefault("serve_addr", ":8080")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults. A .env file in
// the working directory is read first; it never overrides variables that
// are already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		c.APIKey = firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if c.PersonasDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.PersonasDir = filepath.Join(dir, "personas")
	}
	return &c, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Generation returns the sampling parameters for the configured model.
func (c *Global) Generation() ai.GenerationConfig {
	return ai.GenerationConfig{
		Model:       c.DefaultModel,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		TopP:        c.TopP,
		TopK:        c.TopK,
	}
}

// Summarizer returns the classification cutoffs.
func (c *Global) Summarizer() summarizer.Config {
	return summarizer.Config{
		CategoricalThreshold:   c.CategoricalThreshold,
		CategoricalUniqueLimit: c.CategoricalUniqueLimit,
		DateLikeThreshold:      c.DateLikeThreshold,
	}
}

// Runtime returns the runtime settings for provider. The API key is picked
// per provider.
func (c *Global) Runtime(provider string) ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	}
	if strings.EqualFold(provider, ai.ProviderGemini) {
		rc.APIKey = c.GeminiAPIKey
	}
	return rc
}
