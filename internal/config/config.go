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
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Feed      FeedConfig      `yaml:"feed" mapstructure:"feed"`
	Matcher   MatcherConfig   `yaml:"matcher" mapstructure:"matcher"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CatalogConfig configures the live catalog feed client.
type CatalogConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	Token        string `yaml:"token" mapstructure:"token"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec   int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	OnlyActive   bool   `yaml:"only_active" mapstructure:"only_active"`
	IncludeSold  bool   `yaml:"include_sold" mapstructure:"include_sold"`
}

// FeedConfig configures optional FTP retrieval of exported snapshots.
// Some dealer management systems only publish inventory exports on an
// FTP drop, so the importer can pull straight from there.
type FeedConfig struct {
	FTPURL      string `yaml:"ftp_url" mapstructure:"ftp_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MatcherConfig holds the weights and thresholds of the matching engine.
// Weights over the always-present fields sum to 1.0; the plate bonus is
// additive on top and the composite is clamped at 1.0.
type MatcherConfig struct {
	BrandWeight   float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	ModelWeight   float64 `yaml:"model_weight" mapstructure:"model_weight"`
	YearWeight    float64 `yaml:"year_weight" mapstructure:"year_weight"`
	MileageWeight float64 `yaml:"mileage_weight" mapstructure:"mileage_weight"`
	PriceWeight   float64 `yaml:"price_weight" mapstructure:"price_weight"`
	ColorWeight   float64 `yaml:"color_weight" mapstructure:"color_weight"`
	VersionWeight float64 `yaml:"version_weight" mapstructure:"version_weight"`
	PlateBonus    float64 `yaml:"plate_bonus" mapstructure:"plate_bonus"`

	// Hard filter thresholds.
	MinBrandSimilarity   float64 `yaml:"min_brand_similarity" mapstructure:"min_brand_similarity"`
	MinModelSimilarity   float64 `yaml:"min_model_similarity" mapstructure:"min_model_similarity"`
	MinMileageSimilarity float64 `yaml:"min_mileage_similarity" mapstructure:"min_mileage_similarity"`
	MinPriceSimilarity   float64 `yaml:"min_price_similarity" mapstructure:"min_price_similarity"`

	// Acceptance and tier boundaries.
	AcceptScore  float64 `yaml:"accept_score" mapstructure:"accept_score"`
	HighScore    float64 `yaml:"high_score" mapstructure:"high_score"`
	MediumScore  float64 `yaml:"medium_score" mapstructure:"medium_score"`
	LowScore     float64 `yaml:"low_score" mapstructure:"low_score"`

	// Mileage/price tolerance as a fraction of the larger value.
	MileageTolerance float64 `yaml:"mileage_tolerance" mapstructure:"mileage_tolerance"`
	PriceTolerance   float64 `yaml:"price_tolerance" mapstructure:"price_tolerance"`

	// MaxWorkers bounds the selector fan-out. 0 means GOMAXPROCS.
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`

	// BaseCurrency is assumed when a price carries no currency marker.
	BaseCurrency string `yaml:"base_currency" mapstructure:"base_currency"`
}

// ReconcileConfig configures the reconciliation engine.
type ReconcileConfig struct {
	// MonitoredFields lists the fields compared between prior and fresh
	// records. Empty means the built-in default set.
	MonitoredFields []string `yaml:"monitored_fields" mapstructure:"monitored_fields"`
}

// AnthropicConfig holds Anthropic API settings for technical-data enrichment.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BatchConfig configures enrichment batch processing.
type BatchConfig struct {
	Size           int `yaml:"size" mapstructure:"size"`
	DelaySecs      int `yaml:"delay_secs" mapstructure:"delay_secs"`
	MaxConcurrent  int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RequestsPerMin int `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// StoreConfig configures the local snapshot database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures report output.
type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"` // xlsx or yaml
}

// ServerConfig configures the report preview server.
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
	v.SetEnvPrefix("LOTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "lotsync.db")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "xlsx")

	v.SetDefault("catalog.page_size", 50)
	v.SetDefault("catalog.timeout_secs", 30)
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.rate_per_sec", 5)
	v.SetDefault("catalog.only_active", true)

	v.SetDefault("feed.timeout_secs", 30)

	v.SetDefault("matcher.brand_weight", 0.15)
	v.SetDefault("matcher.model_weight", 0.20)
	v.SetDefault("matcher.year_weight", 0.15)
	v.SetDefault("matcher.mileage_weight", 0.20)
	v.SetDefault("matcher.price_weight", 0.20)
	v.SetDefault("matcher.color_weight", 0.05)
	v.SetDefault("matcher.version_weight", 0.05)
	v.SetDefault("matcher.plate_bonus", 0.25)
	v.SetDefault("matcher.min_brand_similarity", 0.70)
	v.SetDefault("matcher.min_model_similarity", 0.60)
	v.SetDefault("matcher.min_mileage_similarity", 0.80)
	v.SetDefault("matcher.min_price_similarity", 0.60)
	v.SetDefault("matcher.accept_score", 0.60)
	v.SetDefault("matcher.high_score", 0.80)
	v.SetDefault("matcher.medium_score", 0.65)
	v.SetDefault("matcher.low_score", 0.50)
	v.SetDefault("matcher.mileage_tolerance", 0.15)
	v.SetDefault("matcher.price_tolerance", 0.20)
	v.SetDefault("matcher.base_currency", "ARS")

	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)

	v.SetDefault("batch.size", 5)
	v.SetDefault("batch.delay_secs", 2)
	v.SetDefault("batch.max_concurrent", 3)
	v.SetDefault("batch.requests_per_min", 50)
}

// Validate checks the fields a given command mode needs. Modes map to
// the CLI commands that hit external systems; purely local commands do
// not call Validate.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "fetch":
		if c.Catalog.BaseURL == "" {
			errs = append(errs, "catalog.base_url is required")
		}
		if c.Catalog.Token == "" {
			errs = append(errs, "catalog.token is required")
		}
		if c.Catalog.PageSize <= 0 {
			errs = append(errs, "catalog.page_size must be > 0")
		}
	case "enrich":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Batch.Size <= 0 {
			errs = append(errs, "batch.size must be > 0")
		}
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 20 {
			errs = append(errs, "batch.max_concurrent must be between 1 and 20")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed for %s: %s", mode, strings.Join(errs, "; "))
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
