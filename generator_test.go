package autodeck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPGeneratorBase64(t *testing.T) {
	img := encodePNG(t, 4, 4)
	var got imagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(img)}},
		})
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL+"/", "Kwai-Kolors/Kolors", "secret")
	data, err := g.Generate(context.Background(), GenerateRequest{Prompt: "a lab", Width: 1024, Height: 1024})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, img) {
		t.Fatal("image bytes differ")
	}
	if got.Model != "Kwai-Kolors/Kolors" || got.Prompt != "a lab" || got.ImageSize != "1024x1024" || got.N != 1 {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestHTTPGeneratorURLDownload(t *testing.T) {
	img := encodePNG(t, 4, 4)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": srv.URL + "/files/img.png"}},
		})
	})
	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	data, err := NewHTTPGenerator(srv.URL, "m", "k").Generate(context.Background(), GenerateRequest{Prompt: "p", Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		t.Fatalf("downloaded data is not an image: %v", err)
	}
}

func TestHTTPGeneratorRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL, "m", "k").Generate(context.Background(), GenerateRequest{Prompt: "p", Width: 1, Height: 1})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Fatalf("RetryAfter = %v", rl.RetryAfter)
	}
	if classifyAttempt(err) != EventRateLimited {
		t.Fatal("429 not classified as rate limited")
	}
}

func TestHTTPGeneratorErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		want   RetryEvent
	}{
		{http.StatusBadGateway, EventTimedOut},
		{http.StatusRequestTimeout, EventTimedOut},
		{http.StatusUnauthorized, EventFailed},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		_, err := NewHTTPGenerator(srv.URL, "m", "k").Generate(context.Background(), GenerateRequest{Prompt: "p", Width: 1, Height: 1})
		srv.Close()

		var he *HTTPError
		if !errors.As(err, &he) || he.StatusCode != tt.status {
			t.Fatalf("status %d: got %v", tt.status, err)
		}
		if got := classifyAttempt(err); got != tt.want {
			t.Errorf("status %d classified %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestHTTPGeneratorMissingKey(t *testing.T) {
	t.Setenv(EnvImageAPIKey, "")
	_, err := NewHTTPGenerator("http://127.0.0.1:1", "m", "").Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestHTTPGeneratorKeyFromEnv(t *testing.T) {
	t.Setenv(EnvImageAPIKey, "from-env")
	if g := NewHTTPGenerator("http://x", "m", ""); g.APIKey != "from-env" {
		t.Fatalf("APIKey = %q", g.APIKey)
	}
}

func TestUnsplashSourceCropsToSquare(t *testing.T) {
	photo := encodePNG(t, 64, 32)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/search/photos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID key" {
			t.Errorf("authorization = %q", got)
		}
		if q := r.URL.Query().Get("query"); q != "network security" {
			t.Errorf("query = %q", q)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"urls": map[string]string{"regular": srv.URL + "/photo"}}},
		})
	})
	mux.HandleFunc("/photo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(photo)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	u := NewUnsplashSource("key")
	u.BaseURL = srv.URL
	data, err := u.Search(context.Background(), "network security", 16)
	if err != nil {
		t.Fatal(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != 16 || cfg.Height != 16 {
		t.Fatalf("stock image is %s %dx%d, want png 16x16", format, cfg.Width, cfg.Height)
	}
}

func TestUnsplashSourceNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	u := NewUnsplashSource("key")
	u.BaseURL = srv.URL
	if _, err := u.Search(context.Background(), "nothing", 16); err == nil {
		t.Fatal("expected an error for an empty result set")
	}
}
