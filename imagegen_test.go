package autodeck

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// noSleep records requested delays without waiting.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *noSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fakeStock struct {
	data    []byte
	err     error
	queries []string
}

func (f *fakeStock) Search(_ context.Context, query string, _ int) ([]byte, error) {
	f.queries = append(f.queries, query)
	return f.data, f.err
}

var testSource = PromptSource{Slide: 2, Title: "Network security", Bullets: []string{"Firewalls: filter traffic"}}

func TestPlaceholderDeterministic(t *testing.T) {
	p := NewPipeline(PipelineOptions{})
	a := p.Acquire(context.Background(), testSource, false)
	b := p.Acquire(context.Background(), testSource, false)
	if a.Source != SourcePlaceholder {
		t.Fatalf("source = %s, want placeholder", a.Source)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatal("placeholders for identical input differ")
	}
	if a.Degraded() && a.Detail != "" {
		t.Fatalf("offline placeholder carries a failure detail: %q", a.Detail)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != ImageSize || cfg.Height != ImageSize {
		t.Fatalf("placeholder is %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestAcquireNoNetworkWithoutAI(t *testing.T) {
	var calls atomic.Int32
	gen := FuncGenerator(func(context.Context, GenerateRequest) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("must not be called")
	})
	p := NewPipeline(PipelineOptions{Generator: gen})
	p.Acquire(context.Background(), testSource, false)
	if calls.Load() != 0 {
		t.Fatalf("generator called %d times with useAI=false", calls.Load())
	}
}

func TestAcquireAlwaysRateLimited(t *testing.T) {
	var calls atomic.Int32
	gen := FuncGenerator(func(context.Context, GenerateRequest) ([]byte, error) {
		calls.Add(1)
		return nil, &RateLimitError{RetryAfter: 2 * time.Second}
	})
	s := &noSleep{}
	p := NewPipeline(PipelineOptions{Generator: gen, Retry: DefaultRetryPolicy(), Sleep: s.sleep})

	asset := p.Acquire(context.Background(), testSource, true)
	if got := calls.Load(); got != 3 {
		t.Fatalf("generator calls = %d, want 3", got)
	}
	if asset.Source != SourcePlaceholder || asset.Detail == "" {
		t.Fatalf("want one placeholder fallback with detail, got %s %q", asset.Source, asset.Detail)
	}
	if asset.Attempts != 3 {
		t.Fatalf("attempts = %d", asset.Attempts)
	}
	if len(s.delays) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(s.delays))
	}
	for _, d := range s.delays {
		if d < 2*time.Second {
			t.Errorf("delay %v below Retry-After", d)
		}
	}
}

func TestAcquireGenerated(t *testing.T) {
	img := encodePNG(t, ImageSize, ImageSize)
	var got GenerateRequest
	gen := FuncGenerator(func(_ context.Context, req GenerateRequest) ([]byte, error) {
		got = req
		return img, nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen})
	asset := p.Acquire(context.Background(), testSource, true)
	if asset.Source != SourceGenerated || asset.Degraded() {
		t.Fatalf("source = %s", asset.Source)
	}
	if asset.MimeType != "image/png" || !bytes.Equal(asset.Data, img) {
		t.Fatal("generated image altered")
	}
	if got.Width != ImageSize || got.Height != ImageSize || got.Prompt != DerivePrompt(testSource) {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestAcquireRejectsWrongSize(t *testing.T) {
	var calls atomic.Int32
	gen := FuncGenerator(func(context.Context, GenerateRequest) ([]byte, error) {
		calls.Add(1)
		return encodePNG(t, 512, 512), nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen, Sleep: (&noSleep{}).sleep})
	asset := p.Acquire(context.Background(), testSource, true)
	if asset.Source != SourcePlaceholder {
		t.Fatalf("source = %s, want placeholder", asset.Source)
	}
	if calls.Load() != 1 {
		t.Fatalf("validation failure retried: %d calls", calls.Load())
	}
}

func TestNormalizeImageJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	data, mime, err := normalizeImage(buf.Bytes(), 8, 8)
	if err != nil || mime != "image/jpeg" || !bytes.Equal(data, buf.Bytes()) {
		t.Fatalf("jpeg not passed through: %v %s", err, mime)
	}
	if _, _, err := normalizeImage([]byte("not an image"), 8, 8); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestAcquireStockFallback(t *testing.T) {
	gen := FuncGenerator(func(context.Context, GenerateRequest) ([]byte, error) {
		return nil, &HTTPError{StatusCode: 401}
	})
	stock := &fakeStock{data: encodePNG(t, ImageSize, ImageSize)}
	p := NewPipeline(PipelineOptions{Generator: gen, Stock: stock})
	asset := p.Acquire(context.Background(), testSource, true)
	if asset.Source != SourceStock || !asset.Degraded() {
		t.Fatalf("source = %s, want stock", asset.Source)
	}
	if len(stock.queries) != 1 || stock.queries[0] != "Network security" {
		t.Fatalf("stock queries = %q", stock.queries)
	}
}

func TestAcquireUsesCache(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	img := encodePNG(t, ImageSize, ImageSize)
	gen := FuncGenerator(func(context.Context, GenerateRequest) ([]byte, error) {
		calls.Add(1)
		return img, nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen, Cache: cache, Model: "m"})
	first := p.Acquire(context.Background(), testSource, true)
	second := p.Acquire(context.Background(), testSource, true)
	if first.Source != SourceGenerated || second.Source != SourceCached {
		t.Fatalf("sources = %s, %s", first.Source, second.Source)
	}
	if calls.Load() != 1 {
		t.Fatalf("generator calls = %d, want 1", calls.Load())
	}
}

func TestAcquireAllOrderAndConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	img := encodePNG(t, ImageSize, ImageSize)
	gen := FuncGenerator(func(ctx context.Context, req GenerateRequest) ([]byte, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return img, nil
	})
	p := NewPipeline(PipelineOptions{Generator: gen, MaxInFlight: 2})
	reqs := []ImageRequest{
		{Slide: 0, Prompt: "one"},
		{Slide: 1, Prompt: "two"},
		{Slide: 2, Prompt: "three"},
		{Slide: 3, Prompt: "four"},
		{Slide: 4, Prompt: "five"},
	}
	assets, err := p.AcquireAll(context.Background(), reqs, true)
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range assets {
		if a.Prompt != reqs[i].Prompt {
			t.Errorf("asset %d has prompt %q, want %q", i, a.Prompt, reqs[i].Prompt)
		}
	}
	if peak.Load() > 2 {
		t.Fatalf("peak in-flight = %d, want <= 2", peak.Load())
	}
}

func TestAcquireAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(PipelineOptions{})
	_, err := p.AcquireAll(ctx, []ImageRequest{{Title: "x"}}, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
