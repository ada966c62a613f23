package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	BrightData BrightDataConfig `yaml:"brightdata" mapstructure:"brightdata"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Selector   SelectorConfig   `yaml:"selector" mapstructure:"selector"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Jobs       JobsConfig       `yaml:"jobs" mapstructure:"jobs"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// BrightDataConfig holds Bright Data datasets API settings.
type BrightDataConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	SearchDatasetID  string  `yaml:"search_dataset_id" mapstructure:"search_dataset_id"`
	ProfileDatasetID string  `yaml:"profile_dataset_id" mapstructure:"profile_dataset_id"`
	SearchURL        string  `yaml:"search_url" mapstructure:"search_url"`
	PollIntervalMs   int     `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollCapMs        int     `yaml:"poll_cap_ms" mapstructure:"poll_cap_ms"`
	PollTimeoutSecs  int     `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// LLMConfig selects the generative backend.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OCRConfig configures image text extraction.
type OCRConfig struct {
	Provider     string `yaml:"provider" mapstructure:"provider"`
	MistralKey   string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel string `yaml:"mistral_model" mapstructure:"mistral_model"`
	GeminiKey    string `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel  string `yaml:"gemini_model" mapstructure:"gemini_model"`
}

// SelectorConfig configures candidate selection.
type SelectorConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	SearchRetries       int `yaml:"search_retries" mapstructure:"search_retries"`
	SearchBackoffMs     int `yaml:"search_backoff_ms" mapstructure:"search_backoff_ms"`
	CallTimeoutSecs     int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	LookupCacheTTLHours int `yaml:"lookup_cache_ttl_hours" mapstructure:"lookup_cache_ttl_hours"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// JobsConfig configures the async capture job runner.
type JobsConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NETWORKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "networking.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("jobs.workers", 2)
	v.SetDefault("brightdata.base_url", "https://api.brightdata.com/datasets/v3")
	v.SetDefault("brightdata.search_url", "https://www.linkedin.com")
	v.SetDefault("brightdata.poll_interval_ms", 2000)
	v.SetDefault("brightdata.poll_cap_ms", 15000)
	v.SetDefault("brightdata.poll_timeout_secs", 180)
	v.SetDefault("brightdata.rate_per_sec", 2.0)
	v.SetDefault("brightdata.breaker_threshold", 5)
	v.SetDefault("brightdata.breaker_reset_secs", 30)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ocr.provider", "gemini")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.gemini_model", "gemini-2.5-flash")
	v.SetDefault("selector.mode", "llm")
	v.SetDefault("pipeline.search_retries", 1)
	v.SetDefault("pipeline.search_backoff_ms", 1500)
	v.SetDefault("pipeline.call_timeout_secs", 240)
	v.SetDefault("pipeline.lookup_cache_ttl_hours", 24)
}

// Validate checks that the settings required by a command mode are present.
func (c *Config) Validate(mode string) error {
	var errs []string

	requireLLM := func() {
		switch c.LLM.Provider {
		case "anthropic", "":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required")
			}
		default:
			errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
	}
	requireDirectory := func() {
		if c.BrightData.Key == "" {
			errs = append(errs, "brightdata.key is required")
		}
		if c.BrightData.SearchDatasetID == "" {
			errs = append(errs, "brightdata.search_dataset_id is required")
		}
		if c.BrightData.ProfileDatasetID == "" {
			errs = append(errs, "brightdata.profile_dataset_id is required")
		}
	}

	switch mode {
	case "serve":
		requireLLM()
		requireDirectory()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Jobs.Workers < 1 || c.Jobs.Workers > 32 {
			errs = append(errs, "jobs.workers must be between 1 and 32")
		}
	case "lookup", "capture":
		requireLLM()
		requireDirectory()
	case "snapshot":
		requireDirectory()
	case "enrich":
		requireLLM()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Selector.Mode {
	case "", "llm", "heuristic":
	default:
		errs = append(errs, fmt.Sprintf("selector.mode %q must be llm or heuristic", c.Selector.Mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
