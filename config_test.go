package autodeck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autodeck.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv(EnvImageAPIKey, "")
	path := writeConfig(t, `
images:
  use_ai: true
  max_attempts: 5
  attempt_timeout: 30s
  backoff:
    initial: 2s
cache:
  kind: disk
  dir: /tmp/autodeck-cache
themes:
  corporate:
    primary: "#8E24AA"
metrics: font
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Images.UseAI || cfg.Images.MaxAttempts != 5 {
		t.Fatalf("images not overlaid: %+v", cfg.Images)
	}
	if cfg.Images.AttemptTimeout.D() != 30*time.Second || cfg.Images.Backoff.Initial.D() != 2*time.Second {
		t.Fatalf("durations not parsed: %+v", cfg.Images)
	}
	if cfg.Images.Backoff.Max.D() != 60*time.Second {
		t.Fatalf("unset backoff.max lost its default: %v", cfg.Images.Backoff.Max.D())
	}
	if cfg.Images.Model != "Kwai-Kolors/Kolors" || cfg.Canvas != DefaultCanvas {
		t.Fatal("defaults not kept")
	}
	if cfg.Metrics != MetricsFont || cfg.Cache.Kind != CacheDisk {
		t.Fatalf("unexpected metrics/cache: %s %s", cfg.Metrics, cfg.Cache.Kind)
	}
	if rp := cfg.RetryPolicy(); rp.MaxAttempts != 5 || rp.Initial != 2*time.Second {
		t.Fatalf("RetryPolicy = %+v", rp)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvImageAPIKey, "sk-env")
	t.Setenv(EnvUnsplashKey, "unsplash-env")
	t.Setenv(EnvRedisAddr, "localhost:6380")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Images.APIKey != "sk-env" || cfg.Stock.AccessKey != "unsplash-env" || cfg.Cache.RedisAddr != "localhost:6380" {
		t.Fatalf("env not applied: %+v %+v %+v", cfg.Images, cfg.Stock, cfg.Cache)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad duration", "images:\n  attempt_timeout: soon\n", "invalid duration"},
		{"zero attempts", "images:\n  max_attempts: 0\n", "max_attempts"},
		{"jitter range", "images:\n  backoff:\n    jitter: 1.5\n", "jitter"},
		{"cache kind", "cache:\n  kind: memcached\n", "cache.kind"},
		{"redis addr", "cache:\n  kind: redis\n", "redis_addr"},
		{"theme primary", "themes:\n  x:\n    accent: \"#FFFFFF\"\n", "themes.x.primary"},
		{"metrics kind", "metrics: exact\n", "metrics"},
		{"font file type", "fonts:\n  files: [brand.woff2]\n", "fonts.files[0]"},
		{"font dir empty", "fonts:\n  dirs: [\"\"]\n", "fonts.dirs[0]"},
	}
	t.Setenv(EnvRedisAddr, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFontsConfigLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "BrandSans.ttf")
	if err := os.WriteFile(font, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, "fonts:\n  dirs: ["+dir+"]\n  files: ["+font+"]\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Fonts.Dirs) != 1 || len(cfg.Fonts.Files) != 1 {
		t.Fatalf("fonts not parsed: %+v", cfg.Fonts)
	}
	fc, err := cfg.Fonts.Cache()
	if err != nil {
		t.Fatalf("Cache: %v", err)
	}
	if fc.MeasureFace("brandsans", 12, false, false) == nil {
		t.Fatal("configured font file not registered under its base name")
	}

	missing := FontsConfig{Files: []string{filepath.Join(dir, "absent.ttf")}}
	if _, err := missing.Cache(); err == nil || !strings.Contains(err.Error(), "fonts.files") {
		t.Fatalf("err = %v, want a fonts.files error", err)
	}
}
