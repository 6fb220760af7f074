package autodeck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/VantageDataChat/autodeck/internal/httpx"
	"github.com/VantageDataChat/autodeck/internal/logger"
)

// ImageSize is the edge length in pixels of every acquired image.
const ImageSize = 1024

const tracerName = "github.com/VantageDataChat/autodeck"

// ImageSource records where an asset came from.
type ImageSource string

const (
	SourceGenerated   ImageSource = "generated"
	SourceStock       ImageSource = "stock"
	SourceCached      ImageSource = "cached"
	SourcePlaceholder ImageSource = "placeholder"
)

// ImageAsset is an acquired image. Data is PNG or JPEG.
type ImageAsset struct {
	Data     []byte      `json:"-"`
	MimeType string      `json:"mime_type"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Source   ImageSource `json:"source"`
	Prompt   string      `json:"prompt"`
	Attempts int         `json:"attempts,omitempty"`
	// Detail explains a fallback.
	Detail string `json:"detail,omitempty"`
}

// Degraded reports whether the asset is a substitute for a requested
// generation.
func (a ImageAsset) Degraded() bool {
	return a.Source == SourcePlaceholder || a.Source == SourceStock
}

// ImageRequest is one entry of a batch acquisition.
type ImageRequest = PromptSource

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PipelineOptions configures a Pipeline. Zero values take defaults; a zero
// RequestsPerMinute means unpaced.
type PipelineOptions struct {
	Generator         Generator
	Stock             StockSource
	Cache             ImageCache
	Model             string
	Retry             RetryPolicy
	AttemptTimeout    time.Duration
	RequestsPerMinute float64
	MaxInFlight       int
	Sleep             SleepFunc
	Logger            *logger.Logger
	Tracer            trace.Tracer
}

// Pipeline acquires slide images: generation with retry, then stock, then a
// placeholder. It is the only component that performs network I/O or
// sleeps. Safe for concurrent use.
type Pipeline struct {
	gen         Generator
	stock       StockSource
	cache       ImageCache
	model       string
	retry       RetryPolicy
	timeout     time.Duration
	limiter     *rate.Limiter
	maxInFlight int
	sleep       SleepFunc
	log         *logger.Logger
	tracer      trace.Tracer
}

// NewPipeline builds a pipeline from opts.
func NewPipeline(opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		gen:         opts.Generator,
		stock:       opts.Stock,
		cache:       opts.Cache,
		model:       opts.Model,
		retry:       opts.Retry,
		timeout:     opts.AttemptTimeout,
		maxInFlight: opts.MaxInFlight,
		sleep:       opts.Sleep,
		log:         opts.Logger,
		tracer:      opts.Tracer,
	}
	if p.timeout <= 0 {
		p.timeout = 60 * time.Second
	}
	if p.maxInFlight <= 0 {
		p.maxInFlight = 2
	}
	if p.sleep == nil {
		p.sleep = httpx.Sleep
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	if opts.RequestsPerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60), 1)
	} else {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return p
}

// Acquire returns an image for one slide. It never fails: with useAI false
// it paints a placeholder without network access, and every generation
// failure falls back to stock or placeholder with Detail set.
func (p *Pipeline) Acquire(ctx context.Context, src PromptSource, useAI bool) ImageAsset {
	prompt := DerivePrompt(src)
	ctx, span := p.tracer.Start(ctx, "imagegen.Acquire", trace.WithAttributes(
		attribute.Int("slide", src.Slide+1),
		attribute.Bool("use_ai", useAI),
	))
	defer span.End()

	asset := p.acquire(ctx, src, prompt, useAI)
	span.SetAttributes(
		attribute.String("source", string(asset.Source)),
		attribute.Int("attempts", asset.Attempts),
	)
	if asset.Detail != "" {
		span.SetStatus(codes.Error, asset.Detail)
	}
	return asset
}

func (p *Pipeline) acquire(ctx context.Context, src PromptSource, prompt string, useAI bool) ImageAsset {
	if !useAI {
		return p.placeholder(prompt, 0, "")
	}
	log := p.log.With("slide", src.Slide+1)

	key := CacheKey(p.model, ImageSize, prompt)
	if p.cache != nil {
		data, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			log.Warn("image cache read failed", "error", err)
		}
		if ok {
			if data, mime, err := normalizeImage(data, ImageSize, ImageSize); err == nil {
				return ImageAsset{Data: data, MimeType: mime, Width: ImageSize, Height: ImageSize, Source: SourceCached, Prompt: prompt}
			}
			log.Warn("cached image invalid, regenerating", "key", key)
		}
	}

	data, mime, attempts, err := p.generate(ctx, log, prompt)
	if err == nil {
		if p.cache != nil {
			if perr := p.cache.Put(ctx, key, data); perr != nil {
				log.Warn("image cache write failed", "error", perr)
			}
		}
		return ImageAsset{Data: data, MimeType: mime, Width: ImageSize, Height: ImageSize, Source: SourceGenerated, Prompt: prompt, Attempts: attempts}
	}
	detail := err.Error()
	if ctx.Err() != nil {
		return p.placeholder(prompt, attempts, detail)
	}

	if p.stock != nil {
		query := src.Title
		if query == "" || !isASCII(query) {
			query = deriveSubject(src)
		}
		if data, serr := p.stock.Search(ctx, query, ImageSize); serr == nil {
			if data, mime, verr := normalizeImage(data, ImageSize, ImageSize); verr == nil {
				log.Info("stock image used", "reason", detail)
				return ImageAsset{Data: data, MimeType: mime, Width: ImageSize, Height: ImageSize, Source: SourceStock, Prompt: prompt, Attempts: attempts, Detail: detail}
			} else {
				log.Warn("stock image rejected", "error", verr)
			}
		} else {
			log.Warn("stock search failed", "error", serr)
		}
	}
	log.Info("placeholder image used", "reason", detail)
	return p.placeholder(prompt, attempts, detail)
}

func (p *Pipeline) placeholder(prompt string, attempts int, detail string) ImageAsset {
	data, err := Placeholder(prompt, ImageSize)
	if err != nil {
		p.log.Error("placeholder paint failed", "error", err)
	}
	return ImageAsset{
		Data:     data,
		MimeType: "image/png",
		Width:    ImageSize,
		Height:   ImageSize,
		Source:   SourcePlaceholder,
		Prompt:   prompt,
		Attempts: attempts,
		Detail:   detail,
	}
}

// generate drives the retry state machine until it reaches a terminal
// state.
func (p *Pipeline) generate(ctx context.Context, log *logger.Logger, prompt string) ([]byte, string, int, error) {
	if p.gen == nil {
		return nil, "", 0, errors.New("no image generator configured")
	}
	m := NewRetry(p.retry)
	if err := m.Fire(EventSend); err != nil {
		return nil, "", 0, err
	}
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, "", m.Attempts(), err
		}
		log.Debug("image generation attempt", "attempt", m.Attempts())
		data, mime, err := p.attempt(ctx, prompt)
		if err == nil {
			if err := settle(m, EventSucceeded, nil); err != nil {
				return nil, "", m.Attempts(), err
			}
			return data, mime, m.Attempts(), nil
		}
		if ctx.Err() != nil {
			return nil, "", m.Attempts(), ctx.Err()
		}

		ev := classifyAttempt(err)
		if ev == EventFailed {
			return nil, "", m.Attempts(), settle(m, EventFailed, fmt.Errorf("image generation failed: %w", err))
		}
		if !m.CanRetry() {
			return nil, "", m.Attempts(), settle(m, EventAttemptsExhausted,
				fmt.Errorf("image generation failed after %d attempts: %w", m.Attempts(), err))
		}
		if ferr := m.Fire(ev); ferr != nil {
			return nil, "", m.Attempts(), errors.Join(err, ferr)
		}
		delay := m.NextDelay(retryAfterOf(err))
		log.Warn("image generation backing off", "event", ev.String(), "attempt", m.Attempts(), "delay", delay.String(), "error", err)
		if err := p.sleep(ctx, delay); err != nil {
			return nil, "", m.Attempts(), err
		}
		if err := m.Fire(EventSend); err != nil {
			return nil, "", m.Attempts(), err
		}
	}
}

// settle fires a terminal event. A rejected transition is joined onto cause
// so the caller falls back instead of reporting success from a broken machine.
func settle(m *Retry, ev RetryEvent, cause error) error {
	if err := m.Fire(ev); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// attempt is one generator call under the per-attempt timeout, validated.
func (p *Pipeline) attempt(ctx context.Context, prompt string) ([]byte, string, error) {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	raw, err := p.gen.Generate(actx, GenerateRequest{Prompt: prompt, Width: ImageSize, Height: ImageSize})
	if err != nil {
		return nil, "", err
	}
	return normalizeImage(raw, ImageSize, ImageSize)
}

// normalizeImage checks that data decodes to exactly w×h and returns it in a
// format the presentation can embed; WebP is transcoded to PNG.
func normalizeImage(data []byte, w, h int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageValidationError{Err: err}
	}
	if cfg.Width != w || cfg.Height != h {
		return nil, "", &ImageValidationError{Width: cfg.Width, Height: cfg.Height}
	}
	switch format {
	case "png":
		return data, "image/png", nil
	case "jpeg":
		return data, "image/jpeg", nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageValidationError{Err: err}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

// AcquireAll acquires images for reqs with at most MaxInFlight concurrent
// acquisitions. Results are in request order. It fails only when ctx is
// cancelled.
func (p *Pipeline) AcquireAll(ctx context.Context, reqs []ImageRequest, useAI bool) ([]ImageAsset, error) {
	out := make([]ImageAsset, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxInFlight)
	for i, req := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out[i] = p.Acquire(gctx, req, useAI)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
