package autodeck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// EnvUnsplashKey is read when no stock access key is configured.
const EnvUnsplashKey = "AUTODECK_UNSPLASH_KEY"

// StockSource finds a ready-made image for a query. Search returns a PNG of
// exactly size×size pixels.
type StockSource interface {
	Search(ctx context.Context, query string, size int) ([]byte, error)
}

// UnsplashSource searches the Unsplash API and crops the first hit.
type UnsplashSource struct {
	BaseURL   string
	AccessKey string
	Client    *http.Client
}

// NewUnsplashSource builds a source. An empty accessKey falls back to
// AUTODECK_UNSPLASH_KEY.
func NewUnsplashSource(accessKey string) *UnsplashSource {
	if strings.TrimSpace(accessKey) == "" {
		accessKey = strings.TrimSpace(os.Getenv(EnvUnsplashKey))
	}
	return &UnsplashSource{
		BaseURL:   "https://api.unsplash.com",
		AccessKey: accessKey,
		Client:    &http.Client{},
	}
}

type unsplashSearch struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// Search fetches the first squarish result for query, cropped to size×size.
func (u *UnsplashSource) Search(ctx context.Context, query string, size int) ([]byte, error) {
	if u.AccessKey == "" {
		return nil, fmt.Errorf("missing unsplash access key (set %s)", EnvUnsplashKey)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty stock query")
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "squarish")

	raw, err := u.get(ctx, strings.TrimRight(u.BaseURL, "/")+"/search/photos?"+q.Encode(), true)
	if err != nil {
		return nil, err
	}
	var res unsplashSearch
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode unsplash search: %w", err)
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("no stock image for %q", query)
	}
	link := res.Results[0].URLs.Regular
	if link == "" {
		link = res.Results[0].URLs.Small
	}
	if link == "" {
		return nil, errors.New("stock result has no image url")
	}
	photo, err := u.get(ctx, link, false)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, fmt.Errorf("decode stock image: %w", err)
	}
	img = imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode stock image: %w", err)
	}
	return buf.Bytes(), nil
}

func (u *UnsplashSource) get(ctx context.Context, link string, auth bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if auth {
		req.Header.Set("Authorization", "Client-ID "+u.AccessKey)
		req.Header.Set("Accept-Version", "v1")
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxImageResponse))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(raw)}
	}
	return raw, nil
}
