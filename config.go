package autodeck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VantageDataChat/autodeck/pptx"
)

// EnvRedisAddr overrides cache.redis_addr.
const EnvRedisAddr = "AUTODECK_REDIS_ADDR"

// Duration is a time.Duration written in YAML as a string like "60s".
type Duration time.Duration

// D converts to time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"5s\"", n.Line)
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Config is the full runtime configuration.
type Config struct {
	Canvas  Canvas                 `yaml:"canvas"`
	Fit     FitOptions             `yaml:"fit"`
	Metrics MetricsKind            `yaml:"metrics"`
	Fonts   FontsConfig            `yaml:"fonts"`
	Images  ImagesConfig           `yaml:"images"`
	Stock   StockConfig            `yaml:"stock"`
	Cache   CacheConfig            `yaml:"cache"`
	Themes  map[string]ThemeConfig `yaml:"themes"`
	Tracing TracingConfig          `yaml:"tracing"`
	Log     LogConfig              `yaml:"log"`
}

// ImagesConfig configures the AI image provider and its retry budget.
type ImagesConfig struct {
	UseAI             bool          `yaml:"use_ai"`
	ProviderURL       string        `yaml:"provider_url"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	MaxAttempts       int           `yaml:"max_attempts"`
	AttemptTimeout    Duration      `yaml:"attempt_timeout"`
	Backoff           BackoffConfig `yaml:"backoff"`
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	MaxInFlight       int           `yaml:"max_in_flight"`
}

// BackoffConfig shapes the delay between generation attempts.
type BackoffConfig struct {
	Initial    Duration `yaml:"initial"`
	Max        Duration `yaml:"max"`
	Multiplier float64  `yaml:"multiplier"`
	Jitter     float64  `yaml:"jitter"`
}

// StockConfig enables the stock photo fallback.
type StockConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AccessKey string `yaml:"access_key"`
}

// MetricsKind selects the text measurement model.
type MetricsKind string

const (
	MetricsHeuristic MetricsKind = "heuristic"
	MetricsFont      MetricsKind = "font"
)

// CacheKind selects the image cache backend.
type CacheKind string

const (
	CacheNone  CacheKind = "none"
	CacheDisk  CacheKind = "disk"
	CacheRedis CacheKind = "redis"
)

// CacheConfig selects and configures the image cache.
type CacheConfig struct {
	Kind      CacheKind `yaml:"kind"`
	Dir       string    `yaml:"dir"`
	RedisAddr string    `yaml:"redis_addr"`
	TTL       Duration  `yaml:"ttl"`
}

// TracingConfig toggles span export to stderr.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FontsConfig adds fonts beyond the system directories. Files register
// under their base name without extension, as well as their family names.
type FontsConfig struct {
	Dirs  []string `yaml:"dirs"`
	Files []string `yaml:"files"`
}

// Cache builds a font cache over the system directories plus Dirs, with
// every file in Files loaded.
func (c FontsConfig) Cache() (*pptx.FontCache, error) {
	fc := pptx.NewFontCache(c.Dirs...)
	for _, path := range c.Files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := fc.LoadFont(name, path); err != nil {
			return nil, fmt.Errorf("fonts.files: %w", err)
		}
	}
	return fc, nil
}

// LogConfig is passed to logger.New.
type LogConfig struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"`
}

// Default returns a configuration with every value set.
func Default() Config {
	rp := DefaultRetryPolicy()
	return Config{
		Canvas:  DefaultCanvas,
		Fit:     DefaultFitOptions(),
		Metrics: MetricsHeuristic,
		Images: ImagesConfig{
			ProviderURL:    "https://api.siliconflow.cn/v1",
			Model:          "Kwai-Kolors/Kolors",
			MaxAttempts:    rp.MaxAttempts,
			AttemptTimeout: Duration(60 * time.Second),
			Backoff: BackoffConfig{
				Initial:    Duration(rp.Initial),
				Max:        Duration(rp.Max),
				Multiplier: rp.Multiplier,
				Jitter:     rp.Jitter,
			},
			RequestsPerMinute: 20,
			MaxInFlight:       2,
		},
		Cache: CacheConfig{
			Kind: CacheNone,
			Dir:  ".autodeck-cache",
			TTL:  Duration(7 * 24 * time.Hour),
		},
		Log: LogConfig{Level: "info", Mode: "dev"},
	}
}

// Load overlays the YAML file at path onto Default and applies environment
// overrides. An empty path yields the defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvImageAPIKey)); v != "" {
		c.Images.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUnsplashKey)); v != "" {
		c.Stock.AccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate checks ranges and cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.Canvas.W > 0 && c.Canvas.H > 0, "canvas: width_pt and height_pt must be positive")
	check(c.Fit.Step > 0, "fit.step must be positive")
	check(c.Fit.MinSize > 0, "fit.min_size must be positive")
	check(c.Fit.LineSpacing >= 1, "fit.line_spacing must be at least 1")
	check(c.Images.MaxAttempts >= 1, "images.max_attempts must be at least 1")
	check(c.Images.AttemptTimeout > 0, "images.attempt_timeout must be positive")
	check(c.Images.Backoff.Initial > 0, "images.backoff.initial must be positive")
	check(c.Images.Backoff.Max >= c.Images.Backoff.Initial, "images.backoff.max must not be below initial")
	check(c.Images.Backoff.Multiplier >= 1, "images.backoff.multiplier must be at least 1")
	check(c.Images.Backoff.Jitter >= 0 && c.Images.Backoff.Jitter < 1, "images.backoff.jitter must be in [0,1)")
	check(c.Images.RequestsPerMinute >= 0, "images.requests_per_minute must not be negative")
	check(c.Images.MaxInFlight >= 1, "images.max_in_flight must be at least 1")
	if c.Images.UseAI {
		check(c.Images.ProviderURL != "", "images.provider_url is required when use_ai is set")
	}
	switch c.Metrics {
	case "", MetricsHeuristic, MetricsFont:
	default:
		check(false, "metrics %q: want heuristic or font", c.Metrics)
	}
	switch c.Cache.Kind {
	case "", CacheNone:
	case CacheDisk:
		check(c.Cache.Dir != "", "cache.dir is required for the disk cache")
	case CacheRedis:
		check(c.Cache.RedisAddr != "", "cache.redis_addr is required for the redis cache (or set %s)", EnvRedisAddr)
	default:
		check(false, "cache.kind %q: want none, disk or redis", c.Cache.Kind)
	}
	for i, dir := range c.Fonts.Dirs {
		check(strings.TrimSpace(dir) != "", "fonts.dirs[%d] is empty", i)
	}
	for i, path := range c.Fonts.Files {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
		default:
			check(false, "fonts.files[%d] %q: want a .ttf or .otf file", i, path)
		}
	}
	for name, tc := range c.Themes {
		check(tc.Primary != "", "themes.%s.primary is required", name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RetryPolicy converts the image settings to a retry policy.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: c.Images.MaxAttempts,
		Initial:     c.Images.Backoff.Initial.D(),
		Max:         c.Images.Backoff.Max.D(),
		Multiplier:  c.Images.Backoff.Multiplier,
		Jitter:      c.Images.Backoff.Jitter,
	}
}
