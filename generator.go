package autodeck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/VantageDataChat/autodeck/internal/httpx"
)

// EnvImageAPIKey is read when no API key is configured.
const EnvImageAPIKey = "AUTODECK_IMAGE_API_KEY"

// GenerateRequest asks for one image.
type GenerateRequest struct {
	Prompt string
	Width  int
	Height int
}

// Generator produces raw image bytes for a prompt. Implementations signal
// throttling with *RateLimitError and HTTP failures with *HTTPError.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// FuncGenerator adapts a function to Generator.
type FuncGenerator func(ctx context.Context, req GenerateRequest) ([]byte, error)

func (f FuncGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return f(ctx, req)
}

// maxImageResponse bounds response bodies read from the provider.
const maxImageResponse = 32 << 20

// HTTPGenerator calls an OpenAI/SiliconFlow-compatible images endpoint.
type HTTPGenerator struct {
	BaseURL string
	Model   string
	APIKey  string
	Steps   int
	Client  *http.Client

	now func() time.Time
}

// NewHTTPGenerator builds a generator. An empty apiKey falls back to
// AUTODECK_IMAGE_API_KEY.
func NewHTTPGenerator(baseURL, model, apiKey string) *HTTPGenerator {
	if strings.TrimSpace(apiKey) == "" {
		apiKey = strings.TrimSpace(os.Getenv(EnvImageAPIKey))
	}
	return &HTTPGenerator{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Model:   model,
		APIKey:  apiKey,
		Steps:   20,
		Client:  &http.Client{},
		now:     time.Now,
	}
}

type imagesRequest struct {
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	ImageSize         string `json:"image_size"`
	NumInferenceSteps int    `json:"num_inference_steps,omitempty"`
	N                 int    `json:"n"`
}

type imageItem struct {
	URL     string `json:"url"`
	B64JSON string `json:"b64_json"`
}

type imagesResponse struct {
	Images []imageItem `json:"images"`
	Data   []imageItem `json:"data"`
}

// Generate posts one image request and returns the decoded image bytes.
func (g *HTTPGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if g.BaseURL == "" {
		return nil, errors.New("image provider url not configured")
	}
	if g.APIKey == "" {
		return nil, fmt.Errorf("missing image api key (set %s)", EnvImageAPIKey)
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("image prompt required")
	}

	body, err := json.Marshal(imagesRequest{
		Model:             g.Model,
		Prompt:            prompt,
		ImageSize:         fmt.Sprintf("%dx%d", req.Width, req.Height),
		NumInferenceSteps: g.Steps,
		N:                 1,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	raw, resp, err := g.do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: httpx.RetryAfter(resp.Header, g.clock())}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(raw)}
	}

	var out imagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	items := out.Images
	if len(items) == 0 {
		items = out.Data
	}
	if len(items) == 0 {
		return nil, errors.New("no image returned")
	}
	item := items[0]
	if b64 := strings.TrimSpace(item.B64JSON); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode image base64: %w", err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, errors.New("image response has neither url nor b64_json")
	}
	return g.download(ctx, item.URL)
}

func (g *HTTPGenerator) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	raw, resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(raw)}
	}
	return raw, nil
}

func (g *HTTPGenerator) do(req *http.Request) ([]byte, *http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxImageResponse))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}
	return raw, resp, nil
}

func (g *HTTPGenerator) clock() time.Time {
	if g.now == nil {
		return time.Now()
	}
	return g.now()
}

// snippet shortens a response body for error messages.
func snippet(b []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
