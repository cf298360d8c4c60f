package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultBaseMapURL is the pinned province boundary file drawn under the risk map.
const DefaultBaseMapURL = "https://raw.githubusercontent.com/southkorea/southkorea-maps/master/kostat/2013/json/skorea_provinces_geo_simple.json"

// Config holds all service settings, populated from environment variables.
type Config struct {
	LabelPath      string
	PairPath       string
	IntegratedPath string // empty disables the integrated table

	DefaultRiskLevel domain.RiskLevel
	ReloadInterval   time.Duration // 0 disables file watching

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Base-map configuration.
	BaseMapURL      string
	BaseMapEnabled  bool
	BaseMapTimeout  time.Duration
	BaseMapCacheTTL time.Duration

	BubbleMeasure string
	BubbleScale   float64

	KafkaBrokers     []string
	KafkaReportTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	riskLevel, ok := domain.ParseRiskLevel(sharedcfg.EnvOrDefault("DEFAULT_RISK_LEVEL", string(domain.RiskMedium)))
	if !ok {
		return nil, errors.New("invalid DEFAULT_RISK_LEVEL: must be Low, Medium or High")
	}

	reloadInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RELOAD_INTERVAL", "30s"))
	if err != nil || reloadInterval < 0 {
		return nil, errors.New("invalid RELOAD_INTERVAL")
	}

	basemapTimeout, err := parsePositiveDuration("BASEMAP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	basemapTTL, err := parsePositiveDuration("BASEMAP_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	basemapEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("BASEMAP_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid BASEMAP_ENABLED")
	}

	bubbleScale, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("BUBBLE_SCALE", "15"), 64)
	if err != nil || bubbleScale <= 0 {
		return nil, errors.New("invalid BUBBLE_SCALE: must be a positive number")
	}

	cfg := &Config{
		LabelPath:      sharedcfg.EnvOrDefault("HRA_LABEL_PATH", "data/hra_label_total_2025_2028.csv"),
		PairPath:       sharedcfg.EnvOrDefault("HRA_PAIR_PATH", "data/hra_pairwise_2025_2028.csv"),
		IntegratedPath: sharedcfg.EnvOrDefault("HRA_INTEGRATED_PATH", "data/rrreal_final_ALL_predicted.csv"),

		DefaultRiskLevel: riskLevel,
		ReloadInterval:   reloadInterval,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BaseMapURL:      sharedcfg.EnvOrDefault("BASEMAP_URL", DefaultBaseMapURL),
		BaseMapEnabled:  basemapEnabled,
		BaseMapTimeout:  basemapTimeout,
		BaseMapCacheTTL: basemapTTL,

		BubbleMeasure: sharedcfg.EnvOrDefault("BUBBLE_MEASURE", "R_sum"),
		BubbleScale:   bubbleScale,

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "hra-period-reports"),
	}

	if cfg.IntegratedPath == "-" {
		cfg.IntegratedPath = ""
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}

	return cfg, nil
}

// NormalizeOptions returns the default policies applied while normalizing.
func (c *Config) NormalizeOptions() domain.NormalizeOptions {
	return domain.NormalizeOptions{DefaultRiskLevel: c.DefaultRiskLevel}
}

// MapOptions returns the bubble sizing for map points.
func (c *Config) MapOptions() domain.MapOptions {
	return domain.MapOptions{BubbleMeasure: c.BubbleMeasure, BubbleScale: c.BubbleScale}
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}
