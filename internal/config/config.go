package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Annotate  AnnotateConfig  `yaml:"annotate" mapstructure:"annotate"`
	Review    ReviewConfig    `yaml:"review" mapstructure:"review"`
	Split     SplitConfig     `yaml:"split" mapstructure:"split"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the optional run-history database. An empty
// driver disables run recording entirely.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AnnotateConfig configures the annotation loop.
type AnnotateConfig struct {
	BatchSize          int     `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySecs     float64 `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	RequestDelaySecs   float64 `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
	RequestTimeoutSecs int     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CheckpointEvery    int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	CheckpointFile     string  `yaml:"checkpoint_file" mapstructure:"checkpoint_file"`
	ProgressFile       string  `yaml:"progress_file" mapstructure:"progress_file"`
}

// ReviewConfig configures review-queue selection.
type ReviewConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	CrisisSampleFrac    float64 `yaml:"crisis_sample_frac" mapstructure:"crisis_sample_frac"`
	RandomSampleFrac    float64 `yaml:"random_sample_frac" mapstructure:"random_sample_frac"`
	Seed                int64   `yaml:"seed" mapstructure:"seed"`
}

// SplitConfig configures the stratified train/dev/test partition.
// Test gets whatever remains after train and dev.
type SplitConfig struct {
	TrainFrac float64 `yaml:"train_frac" mapstructure:"train_frac"`
	DevFrac   float64 `yaml:"dev_frac" mapstructure:"dev_frac"`
	Seed      int64   `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the review form server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("annotate.batch_size", 5)
	v.SetDefault("annotate.max_retries", 3)
	v.SetDefault("annotate.retry_delay_secs", 2)
	v.SetDefault("annotate.request_delay_secs", 0.1)
	v.SetDefault("annotate.request_timeout_secs", 30)
	v.SetDefault("annotate.checkpoint_every", 10)
	v.SetDefault("annotate.checkpoint_file", "annotation_checkpoint.json")
	v.SetDefault("annotate.progress_file", "annotation_progress.csv")
	v.SetDefault("review.confidence_threshold", 0.70)
	v.SetDefault("review.crisis_sample_frac", 0.15)
	v.SetDefault("review.random_sample_frac", 0.10)
	v.SetDefault("review.seed", 42)
	v.SetDefault("split.train_frac", 0.70)
	v.SetDefault("split.dev_frac", 0.15)
	v.SetDefault("split.seed", 42)

	// Read config file (optional)
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
