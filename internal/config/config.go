// Package config provides configuration management for the translation pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoLanguages               = errors.New("at least one target language is required")
	ErrLanguageMissingCode       = errors.New("language code is required")
	ErrLanguageMissingAnchors    = errors.New("at least one anchor phrase is required per language")
	ErrMissingSourceFile         = errors.New("source.csv_file is required")
	ErrInvalidChunkLength        = errors.New("translation.max_chunk_length must be at least 1")
	ErrInvalidMaxRetries         = errors.New("translation.max_retries must be at least 1")
	ErrInvalidRetryDelay         = errors.New("translation.retry_delay_ms must be non-negative")
	ErrInvalidPacingDelay        = errors.New("translation.pacing_delay_ms must be non-negative")
	ErrInvalidTimeout            = errors.New("translation.timeout_sec must be at least 1")
	ErrInvalidWorkers            = errors.New("pipeline.workers must be at least 1")
	ErrInvalidCheckpointInterval = errors.New("pipeline.checkpoint_interval must be at least 1")
	ErrInvalidMinLinks           = errors.New("linker.min_links must be non-negative")
	ErrInvalidMaxLinks           = errors.New("linker.max_links must be at least 1")
	ErrMinExceedsMaxLinks        = errors.New("linker.min_links cannot exceed linker.max_links")
	ErrInvalidExcerptLength      = errors.New("meta.excerpt_max_length must be at least 1")
	ErrInvalidEarlyCutRatio      = errors.New("meta.early_cut_ratio must be between 0 and 1")
	ErrInvalidSlugLength         = errors.New("meta.slug_max_length must be at least 1")
	ErrMissingOutputDir          = errors.New("output.dir is required")
	ErrMissingCacheDir           = errors.New("output.cache_dir is required")
	ErrMissingProgressFile       = errors.New("output.progress_file is required")
	ErrInvalidLogLevel           = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Languages   []LanguageConfig  `yaml:"languages"`
	LinkPool    LinkPoolConfig    `yaml:"link_pool"`
	Translation TranslationConfig `yaml:"translation"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Linker      LinkerConfig      `yaml:"linker"`
	Meta        MetaConfig        `yaml:"meta"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SourceConfig describes where records come from.
type SourceConfig struct {
	CSVFile  string `yaml:"csv_file"`
	Language string `yaml:"language"`
}

// LanguageConfig describes one target language.
type LanguageConfig struct {
	Code         string   `yaml:"code"`
	Name         string   `yaml:"name"`
	Anchors      []string `yaml:"anchors"`
	SourceLabel  string   `yaml:"source_label"`
	RelatedTitle string   `yaml:"related_title"`
}

// LinkPoolConfig describes the backlink candidate pool source.
type LinkPoolConfig struct {
	SitemapURL    string `yaml:"sitemap_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// TranslationConfig controls the external translation step.
type TranslationConfig struct {
	Endpoint       string `yaml:"endpoint"`
	MaxChunkLength int    `yaml:"max_chunk_length"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryDelayMs   int    `yaml:"retry_delay_ms"`
	PacingDelayMs  int    `yaml:"pacing_delay_ms"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// RetryDelay returns the backoff delay before the given retry attempt.
// The delay grows linearly: base delay multiplied by the attempt number.
func (tc *TranslationConfig) RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	return time.Duration(tc.RetryDelayMs*attempt) * time.Millisecond
}

// PacingDelay returns the fixed delay applied after every live call.
func (tc *TranslationConfig) PacingDelay() time.Duration {
	return time.Duration(tc.PacingDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (tc *TranslationConfig) Timeout() time.Duration {
	return time.Duration(tc.TimeoutSec) * time.Second
}

// PipelineConfig controls the concurrent executor.
type PipelineConfig struct {
	Workers            int `yaml:"workers"`
	CheckpointInterval int `yaml:"checkpoint_interval"`
}

// LinkerConfig bounds the cross-reference assignment.
type LinkerConfig struct {
	MinLinks int `yaml:"min_links"`
	MaxLinks int `yaml:"max_links"`
}

// MetaConfig controls slug and excerpt derivation.
type MetaConfig struct {
	ExcerptMaxLength int     `yaml:"excerpt_max_length"`
	EarlyCutRatio    float64 `yaml:"early_cut_ratio"`
	SlugMaxLength    int     `yaml:"slug_max_length"`
}

// OutputConfig defines where artifacts, cache and ledger live.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	CacheDir     string `yaml:"cache_dir"`
	ProgressFile string `yaml:"progress_file"`
	LatestCount  int    `yaml:"latest_count"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration with the stock tunables.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			CSVFile:  "posts.csv",
			Language: "uz",
		},
		Languages: []LanguageConfig{
			{
				Code:         "en",
				Name:         "English",
				Anchors:      []string{"Source", "Official Data", "Details here", "More information"},
				SourceLabel:  "Source:",
				RelatedTitle: "Read Also",
			},
		},
		LinkPool: LinkPoolConfig{
			CacheTTLHours: 24,
		},
		Translation: TranslationConfig{
			MaxChunkLength: 4000,
			MaxRetries:     5,
			RetryDelayMs:   3000,
			PacingDelayMs:  1000,
			TimeoutSec:     60,
		},
		Pipeline: PipelineConfig{
			Workers:            10,
			CheckpointInterval: 10,
		},
		Linker: LinkerConfig{
			MinLinks: 5,
			MaxLinks: 10,
		},
		Meta: MetaConfig{
			ExcerptMaxLength: 160,
			EarlyCutRatio:    0.7,
			SlugMaxLength:    100,
		},
		Output: OutputConfig{
			Dir:          "output",
			CacheDir:     ".cache",
			ProgressFile: ".progress.json",
			LatestCount:  12,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file, applying defaults for
// absent sections, then validates it.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Language returns the language config for a code, or nil.
func (c *Config) Language(code string) *LanguageConfig {
	for i := range c.Languages {
		if c.Languages[i].Code == code {
			return &c.Languages[i]
		}
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Languages) == 0 {
		return ErrNoLanguages
	}

	for i, lang := range c.Languages {
		if lang.Code == "" {
			return fmt.Errorf("%w: languages[%d]", ErrLanguageMissingCode, i)
		}

		if len(lang.Anchors) == 0 {
			return fmt.Errorf("%w: languages[%d]", ErrLanguageMissingAnchors, i)
		}
	}

	if c.Source.CSVFile == "" {
		return ErrMissingSourceFile
	}

	if c.Translation.MaxChunkLength < 1 {
		return ErrInvalidChunkLength
	}

	if c.Translation.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}

	if c.Translation.RetryDelayMs < 0 {
		return ErrInvalidRetryDelay
	}

	if c.Translation.PacingDelayMs < 0 {
		return ErrInvalidPacingDelay
	}

	if c.Translation.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Pipeline.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.CheckpointInterval < 1 {
		return ErrInvalidCheckpointInterval
	}

	if c.Linker.MinLinks < 0 {
		return ErrInvalidMinLinks
	}

	if c.Linker.MaxLinks < 1 {
		return ErrInvalidMaxLinks
	}

	if c.Linker.MinLinks > c.Linker.MaxLinks {
		return ErrMinExceedsMaxLinks
	}

	if c.Meta.ExcerptMaxLength < 1 {
		return ErrInvalidExcerptLength
	}

	if c.Meta.EarlyCutRatio <= 0 || c.Meta.EarlyCutRatio >= 1 {
		return ErrInvalidEarlyCutRatio
	}

	if c.Meta.SlugMaxLength < 1 {
		return ErrInvalidSlugLength
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Output.CacheDir == "" {
		return ErrMissingCacheDir
	}

	if c.Output.ProgressFile == "" {
		return ErrMissingProgressFile
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
