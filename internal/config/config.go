package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig       `yaml:"store" mapstructure:"store"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
	Resolver     ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Portal       PortalConfig      `yaml:"portal" mapstructure:"portal"`
	Surcharge    SurchargeConfig   `yaml:"surcharge" mapstructure:"surcharge"`
	Rates        RatesConfig       `yaml:"rates" mapstructure:"rates"`
	Batch        BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Destinations DestinationsFiles `yaml:"destinations" mapstructure:"destinations"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResolverConfig tunes destination resolution.
type ResolverConfig struct {
	MinConfidence        int `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxCandidates        int `yaml:"max_candidates" mapstructure:"max_candidates"`
	CandidateTimeoutSecs int `yaml:"candidate_timeout_secs" mapstructure:"candidate_timeout_secs"`
}

// CandidateTimeout returns the candidate wait as a duration.
func (c ResolverConfig) CandidateTimeout() time.Duration {
	return time.Duration(c.CandidateTimeoutSecs) * time.Second
}

// PortalConfig configures the carrier autocomplete client.
type PortalConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SurchargeConfig configures surcharge workbook export.
type SurchargeConfig struct {
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	BaseFilename string `yaml:"base_filename" mapstructure:"base_filename"`
	Origin       string `yaml:"origin" mapstructure:"origin"`
}

// RatesConfig configures rate combination.
type RatesConfig struct {
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`
	OceanFile   string `yaml:"ocean_file" mapstructure:"ocean_file"`
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentDestinations int `yaml:"max_concurrent_destinations" mapstructure:"max_concurrent_destinations"`
}

// DestinationsFiles locates the destination config and its seed list.
type DestinationsFiles struct {
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`
	ListFile   string `yaml:"list_file" mapstructure:"list_file"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FREIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "freight.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("resolver.min_confidence", 800)
	v.SetDefault("resolver.max_candidates", 20)
	v.SetDefault("resolver.candidate_timeout_secs", 4)
	v.SetDefault("portal.base_url", "")
	v.SetDefault("portal.rate_limit", 2.0)
	v.SetDefault("portal.timeout_secs", 15)
	v.SetDefault("surcharge.output_dir", ".")
	v.SetDefault("surcharge.base_filename", "hapag_surcharges")
	v.SetDefault("surcharge.origin", "BUSAN (KRPUS)")
	v.SetDefault("rates.download_dir", "downloads")
	v.SetDefault("rates.ocean_file", "ocean_rates.xlsx")
	v.SetDefault("rates.output_dir", ".")
	v.SetDefault("batch.max_concurrent_destinations", 4)
	v.SetDefault("destinations.config_file", "destination_configs.json")
	v.SetDefault("destinations.list_file", "destinations.txt")

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
