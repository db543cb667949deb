package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "NEWS_PIPELINE_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	generationKeyEnv = "GENERATION_API_KEY"
	generationURLEnv = "GENERATION_ENDPOINT"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Generation GenerationConfig `yaml:"generation"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Sources    []SourceConfig   `yaml:"sources"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// MetricsConfig controls the Prometheus scrape endpoint. An empty address
// disables the listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN makes
// the application fall back to the in-memory repository.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PipelineConfig is the single canonical surface for every threshold the
// moderation pipeline uses. Nothing else hardcodes a cutoff.
type PipelineConfig struct {
	// CollectionMinRelevance gates raw items entering the run.
	CollectionMinRelevance float64 `yaml:"collectionMinRelevance"`
	// ApproveThreshold and RejectThreshold drive validation decisions;
	// confidences in between land in the review queue.
	ApproveThreshold float64 `yaml:"approveThreshold"`
	RejectThreshold  float64 `yaml:"rejectThreshold"`
	// AutoApproveThreshold gates unattended promotion to publication.
	AutoApproveThreshold float64 `yaml:"autoApproveThreshold"`
	AutoApproveLimit     int     `yaml:"autoApproveLimit"`
	// FallbackCeiling caps the confidence of template-generated content.
	FallbackCeiling float64 `yaml:"fallbackCeiling"`
	// GenerationWorkers bounds concurrent generation calls.
	GenerationWorkers     int           `yaml:"generationWorkers"`
	MaxGenerationAttempts int           `yaml:"maxGenerationAttempts"`
	GenerationTimeout     Duration      `yaml:"generationTimeout"`
	// FallbackNeighborhoods is the size of the default publication target
	// set for unclassified categories.
	FallbackNeighborhoods int `yaml:"fallbackNeighborhoods"`
}

// GenerationConfig defines how to contact the generative service.
type GenerationConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ScoringConfig carries the deployment-specific keyword sets; per-category
// defaults are built in and only overridden when present here.
type ScoringConfig struct {
	Gazetteer          []string            `yaml:"gazetteer"`
	FreshnessKeywords  map[string][]string `yaml:"freshnessKeywords"`
	CategoryVocabulary map[string][]string `yaml:"categoryVocabulary"`
}

// SourceConfig describes one upstream site the collector scrapes.
type SourceConfig struct {
	Name           string  `yaml:"name"`
	URL            string  `yaml:"url"`
	Category       string  `yaml:"category"`
	NeighborhoodID string  `yaml:"neighborhoodId"`
	BaseRelevance  float64 `yaml:"baseRelevance"`
	// Selectors address list items inside the page.
	ItemSelector  string `yaml:"itemSelector"`
	TitleSelector string `yaml:"titleSelector"`
	BodySelector  string `yaml:"bodySelector"`
	LinkSelector  string `yaml:"linkSelector"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(generationKeyEnv); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv(generationURLEnv); v != "" {
		c.Generation.Endpoint = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	base.Pipeline = mergePipeline(base.Pipeline, override.Pipeline)

	if override.Generation.Endpoint != "" {
		base.Generation.Endpoint = override.Generation.Endpoint
	}
	if override.Generation.Model != "" {
		base.Generation.Model = override.Generation.Model
	}
	if override.Generation.APIKey != "" {
		base.Generation.APIKey = override.Generation.APIKey
	}
	if override.Generation.SystemPrompt != "" {
		base.Generation.SystemPrompt = override.Generation.SystemPrompt
	}

	if len(override.Scoring.Gazetteer) > 0 {
		base.Scoring.Gazetteer = override.Scoring.Gazetteer
	}
	if len(override.Scoring.FreshnessKeywords) > 0 {
		base.Scoring.FreshnessKeywords = override.Scoring.FreshnessKeywords
	}
	if len(override.Scoring.CategoryVocabulary) > 0 {
		base.Scoring.CategoryVocabulary = override.Scoring.CategoryVocabulary
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Metrics.Addr != "" {
		base.Metrics = override.Metrics
	}

	return base
}

func mergePipeline(base, override PipelineConfig) PipelineConfig {
	if override.CollectionMinRelevance > 0 {
		base.CollectionMinRelevance = override.CollectionMinRelevance
	}
	if override.ApproveThreshold > 0 {
		base.ApproveThreshold = override.ApproveThreshold
	}
	if override.RejectThreshold > 0 {
		base.RejectThreshold = override.RejectThreshold
	}
	if override.AutoApproveThreshold > 0 {
		base.AutoApproveThreshold = override.AutoApproveThreshold
	}
	if override.AutoApproveLimit > 0 {
		base.AutoApproveLimit = override.AutoApproveLimit
	}
	if override.FallbackCeiling > 0 {
		base.FallbackCeiling = override.FallbackCeiling
	}
	if override.GenerationWorkers > 0 {
		base.GenerationWorkers = override.GenerationWorkers
	}
	if override.MaxGenerationAttempts > 0 {
		base.MaxGenerationAttempts = override.MaxGenerationAttempts
	}
	if override.GenerationTimeout > 0 {
		base.GenerationTimeout = override.GenerationTimeout
	}
	if override.FallbackNeighborhoods > 0 {
		base.FallbackNeighborhoods = override.FallbackNeighborhoods
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Pipeline: PipelineConfig{
			CollectionMinRelevance: 0.6,
			ApproveThreshold:       0.85,
			RejectThreshold:        0.40,
			AutoApproveThreshold:   0.85,
			AutoApproveLimit:       20,
			FallbackCeiling:        0.60,
			GenerationWorkers:      4,
			MaxGenerationAttempts:  3,
			GenerationTimeout:      Duration(30 * time.Second),
			FallbackNeighborhoods:  3,
		},
		Generation: GenerationConfig{
			Endpoint:     "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You write short, factual hyperlocal news articles.",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
