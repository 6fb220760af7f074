// Command autodeck renders a JSON deck description or a markdown outline
// into a .pptx file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/VantageDataChat/autodeck"
	"github.com/VantageDataChat/autodeck/internal/logger"
)

// outlineTheme is used when an outline run names no theme.
const outlineTheme = "tech_blue"

type flags struct {
	in          string
	outline     string
	out         string
	theme       string
	config      string
	ai          bool
	stock       bool
	concurrency int
	trace       bool
	logLevel    string
	listThemes  bool
	dryRun      bool
	preview     string
	version     bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.in, "in", "", `deck JSON path, or "sample" for the built-in demo deck`)
	flag.StringVar(&f.outline, "outline", "", "markdown outline path (instead of -in)")
	flag.StringVar(&f.out, "out", "deck.pptx", "output .pptx path")
	flag.StringVar(&f.theme, "theme", "", "theme name, overrides the deck's metadata.theme")
	flag.StringVar(&f.config, "config", "", "YAML config path")
	flag.BoolVar(&f.ai, "ai", false, "generate images with the configured provider")
	flag.BoolVar(&f.stock, "stock", false, "fall back to Unsplash stock images")
	flag.IntVar(&f.concurrency, "concurrency", 0, "max concurrent image requests (0 keeps the config value)")
	flag.BoolVar(&f.trace, "trace", false, "print OpenTelemetry spans to stderr")
	flag.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	flag.BoolVar(&f.listThemes, "list-themes", false, "list theme names and exit")
	flag.BoolVar(&f.dryRun, "dry-run", false, "print placement plans as JSON instead of writing a file")
	flag.StringVar(&f.preview, "preview", "", "directory for per-slide PNG previews")
	flag.BoolVar(&f.version, "version", false, "print the version and exit")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, f)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "autodeck: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	if f.version {
		fmt.Println("autodeck", autodeck.Version)
		return nil
	}

	cfg, err := autodeck.Load(f.config)
	if err != nil {
		return err
	}
	if f.listThemes {
		themes, err := autodeck.NewThemeResolver(cfg.Themes)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(themes.Names(), "\n"))
		return nil
	}
	applyFlags(&cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	shutdown, err := autodeck.SetupTracing(ctx, cfg.Tracing.Enabled, os.Stderr)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	deck, err := loadInput(f)
	if err != nil {
		return err
	}
	opts := autodeck.BuildOptions{
		Output:     f.out,
		Config:     &cfg,
		Theme:      f.theme,
		PreviewDir: f.preview,
		Logger:     log,
	}

	if f.dryRun {
		plan, err := autodeck.Plan(ctx, deck, opts)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	report, err := autodeck.Build(ctx, deck, opts)
	if err != nil {
		var empty *autodeck.EmptyDeckError
		if errors.As(err, &empty) {
			for _, s := range empty.Skipped {
				fmt.Fprintln(os.Stderr, s.String())
			}
		}
		return err
	}
	for _, line := range report.Lines() {
		fmt.Println(line)
	}
	return nil
}

func applyFlags(cfg *autodeck.Config, f flags) {
	if f.ai {
		cfg.Images.UseAI = true
	}
	if f.stock {
		cfg.Stock.Enabled = true
	}
	if f.concurrency > 0 {
		cfg.Images.MaxInFlight = f.concurrency
	}
	if f.trace {
		cfg.Tracing.Enabled = true
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
}

func loadInput(f flags) (*autodeck.Deck, error) {
	switch {
	case f.outline != "" && f.in != "":
		return nil, errors.New("use either -in or -outline, not both")
	case f.outline != "":
		deck, err := autodeck.LoadOutline(f.outline)
		if err != nil {
			return nil, err
		}
		if deck.Metadata.Theme == "" && f.theme == "" {
			deck.Metadata.Theme = outlineTheme
		}
		return deck, nil
	case f.in == "sample":
		return autodeck.SampleDeck()
	case f.in != "":
		return autodeck.LoadDeck(f.in)
	}
	return nil, errors.New("no input: pass -in deck.json, -in sample or -outline outline.md")
}
