package autodeck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/VantageDataChat/autodeck/internal/logger"
	"github.com/VantageDataChat/autodeck/pptx"
)

// BuildOptions configures Build and Plan. Collaborators left nil are built
// from Config.
type BuildOptions struct {
	// Output is the .pptx path. Required by Build.
	Output string
	// Config nil means Default().
	Config *Config
	// Theme overrides the deck's metadata.theme.
	Theme string
	// PreviewDir, when set, receives one PNG per slide.
	PreviewDir string

	Logger    *logger.Logger
	Tracer    trace.Tracer
	Generator Generator
	Stock     StockSource
	Cache     ImageCache
	Metrics   FontMetrics
	Sleep     SleepFunc
}

// PlanResult is a dry run: the resolved theme plus the placement plans.
type PlanResult struct {
	RunID string `json:"run_id"`
	Theme string `json:"theme"`
	AssemblyResult
}

// Build assembles deck, renders it and writes it atomically to
// opts.Output. On error or cancellation no file is left at opts.Output.
func Build(ctx context.Context, deck *Deck, opts BuildOptions) (*Report, error) {
	start := time.Now()
	if opts.Output == "" {
		return nil, errors.New("build: output path required")
	}
	if err := checkDestination(opts.Output); err != nil {
		return nil, err
	}

	r, err := newRun(ctx, deck, opts)
	if err != nil {
		return nil, err
	}
	defer r.close()
	ctx, span := r.tracer.Start(ctx, "autodeck.Build", trace.WithAttributes(
		attribute.String("run_id", r.id),
		attribute.String("theme", r.theme.Name),
		attribute.String("output", opts.Output),
	))
	defer span.End()

	report, err := r.build(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("build failed", "error", err)
		return nil, err
	}
	report.Elapsed = time.Since(start)
	r.log.Info("build finished",
		"output", report.Output,
		"slides", report.Slides,
		"skipped", len(report.Skipped),
		"degradations", len(report.Degradations),
		"elapsed", report.Elapsed.String(),
	)
	return report, nil
}

// Plan runs everything up to rendering and returns the placement plans.
// Nothing is written.
func Plan(ctx context.Context, deck *Deck, opts BuildOptions) (*PlanResult, error) {
	r, err := newRun(ctx, deck, opts)
	if err != nil {
		return nil, err
	}
	defer r.close()
	ctx, span := r.tracer.Start(ctx, "autodeck.Plan", trace.WithAttributes(
		attribute.String("run_id", r.id),
	))
	defer span.End()

	res, err := r.assembler.Assemble(ctx, deck)
	if err != nil {
		return nil, err
	}
	return &PlanResult{RunID: r.id, Theme: r.theme.Name, AssemblyResult: res}, nil
}

// run holds the collaborators of one build.
type run struct {
	id        string
	deck      *Deck
	cfg       Config
	theme     Theme
	log       *logger.Logger
	tracer    trace.Tracer
	assembler *Assembler
	fonts     *pptx.FontCache
	closers   []func() error
}

func newRun(ctx context.Context, deck *Deck, opts BuildOptions) (*run, error) {
	if deck == nil || len(deck.Slides) == 0 {
		return nil, ErrNoSlides
	}
	cfg := Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &run{id: uuid.NewString(), deck: deck, cfg: cfg, tracer: opts.Tracer}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	base := opts.Logger
	if base == nil {
		base = logger.Nop()
	}
	r.log = base.With("run_id", r.id)

	themes, err := NewThemeResolver(cfg.Themes)
	if err != nil {
		return nil, err
	}
	name := opts.Theme
	if name == "" {
		name = deck.Metadata.Theme
	}
	if r.theme, err = themes.Resolve(name); err != nil {
		return nil, err
	}

	if r.fonts, err = cfg.Fonts.Cache(); err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil && cfg.Metrics == MetricsFont {
		metrics = NewFaceMetrics(r.fonts, r.theme.FontFamily)
	}
	pipeline, err := r.pipeline(ctx, opts)
	if err != nil {
		r.close()
		return nil, err
	}
	r.assembler = NewAssembler(AssemblerOptions{
		Canvas:   cfg.Canvas,
		Fit:      cfg.Fit,
		Metrics:  metrics,
		Pipeline: pipeline,
		UseAI:    cfg.Images.UseAI,
		Logger:   r.log,
		Tracer:   r.tracer,
	})
	return r, nil
}

// pipeline wires the image pipeline from config, preferring injected
// collaborators.
func (r *run) pipeline(ctx context.Context, opts BuildOptions) (*Pipeline, error) {
	img := r.cfg.Images
	gen := opts.Generator
	if gen == nil && img.UseAI {
		gen = NewHTTPGenerator(img.ProviderURL, img.Model, img.APIKey)
	}
	stock := opts.Stock
	if stock == nil && r.cfg.Stock.Enabled {
		stock = NewUnsplashSource(r.cfg.Stock.AccessKey)
	}
	cache := opts.Cache
	if cache == nil && img.UseAI {
		var err error
		if cache, err = r.openCache(ctx); err != nil {
			return nil, err
		}
	}
	return NewPipeline(PipelineOptions{
		Generator:         gen,
		Stock:             stock,
		Cache:             cache,
		Model:             img.Model,
		Retry:             r.cfg.RetryPolicy(),
		AttemptTimeout:    img.AttemptTimeout.D(),
		RequestsPerMinute: img.RequestsPerMinute,
		MaxInFlight:       img.MaxInFlight,
		Sleep:             opts.Sleep,
		Logger:            r.log,
		Tracer:            r.tracer,
	}), nil
}

func (r *run) openCache(ctx context.Context) (ImageCache, error) {
	c := r.cfg.Cache
	switch c.Kind {
	case CacheDisk:
		dc, err := NewDiskCache(c.Dir)
		if err != nil {
			return nil, err
		}
		return dc, nil
	case CacheRedis:
		rc, closeFn, err := DialRedisCache(ctx, c.RedisAddr, c.TTL.D())
		if err != nil {
			r.log.Warn("redis cache unavailable, continuing without cache", "addr", c.RedisAddr, "error", err)
			return nil, nil
		}
		r.closers = append(r.closers, closeFn)
		return rc, nil
	}
	return nil, nil
}

func (r *run) close() {
	for _, fn := range r.closers {
		if err := fn(); err != nil {
			r.log.Warn("close failed", "error", err)
		}
	}
	r.closers = nil
}

func (r *run) build(ctx context.Context, opts BuildOptions) (*Report, error) {
	res, err := r.assembler.Assemble(ctx, r.deck)
	if err != nil {
		return nil, err
	}

	p, err := Renderer{Canvas: r.cfg.Canvas}.Render(r.theme, res.Plans, r.deck.Metadata)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("rendered presentation is invalid: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := pptx.NewWriter(p).Save(opts.Output); err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.Output, err)
	}

	report := &Report{
		RunID:        r.id,
		Output:       opts.Output,
		Theme:        r.theme.Name,
		Slides:       len(res.Plans),
		Skipped:      res.Skipped,
		Degradations: res.Degradations,
	}
	if opts.PreviewDir != "" {
		paths, err := p.SavePreviews(opts.PreviewDir, &pptx.PreviewOptions{Fonts: r.fonts})
		if err != nil {
			r.log.Warn("preview rendering failed", "dir", opts.PreviewDir, "error", err)
		}
		report.Previews = paths
	}
	return report, nil
}

// checkDestination fails early when the output directory is missing or not
// writable.
func checkDestination(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".autodeck-probe-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
