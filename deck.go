package autodeck

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SlideType is the slide kind. Unknown values are kept as read so the layout
// engine can reject them per slide.
type SlideType string

const (
	SlideCover        SlideType = "cover"
	SlideSection      SlideType = "section"
	SlideContentImage SlideType = "content_image"
	SlideChart        SlideType = "chart"
	SlideEnding       SlideType = "ending"
)

// Deck is a parsed deck description.
type Deck struct {
	Metadata Metadata    `json:"metadata"`
	Slides   []SlideSpec `json:"slides"`
}

// Metadata is the deck-level header.
type Metadata struct {
	Title   string `json:"title"`
	Theme   string `json:"theme"`
	Author  string `json:"author,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// SlideSpec is one slide record. Unknown JSON fields are ignored.
type SlideSpec struct {
	Type        SlideType      `json:"type"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle,omitempty"`
	Slogan      string         `json:"slogan,omitempty"`
	Bullets     []string       `json:"bullets,omitempty"`
	ImagePrompt string         `json:"image_prompt,omitempty"`
	ImageDesc   string         `json:"image_desc,omitempty"`
	Quote       string         `json:"quote,omitempty"`
	Layout      LayoutOverride `json:"layout,omitempty"`
	ChartData   *ChartData     `json:"chart_data,omitempty"`
	Note        string         `json:"note,omitempty"`
}

// ChartData is the series data of a chart slide.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one named series; Values align with ChartData.Labels.
type ChartDataset struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Empty reports whether there is nothing to plot.
func (c *ChartData) Empty() bool {
	return c == nil || len(c.Labels) == 0 || len(c.Datasets) == 0
}

// LayoutOverride pins a content_image slide to a variant. It accepts
// "left_text", "right_text", "top_text" or the numbers 1, 2, 3.
type LayoutOverride int

const (
	LayoutAuto LayoutOverride = iota
	LayoutLeftText
	LayoutRightText
	LayoutTopText
)

var layoutNames = map[string]LayoutOverride{
	"":           LayoutAuto,
	"auto":       LayoutAuto,
	"left_text":  LayoutLeftText,
	"right_text": LayoutRightText,
	"top_text":   LayoutTopText,
}

func (l *LayoutOverride) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*l = LayoutAuto
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("layout: expected name or number, got %s", b)
		}
		s = strconv.Itoa(n)
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if v, ok := layoutNames[s]; ok {
		*l = v
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 3 {
		*l = LayoutOverride(n)
		return nil
	}
	return fmt.Errorf("layout: unknown value %q", s)
}

// MarshalJSON writes the override in its input form.
func (l LayoutOverride) MarshalJSON() ([]byte, error) {
	for k, v := range layoutNames {
		if v == l && k != "" && k != "auto" {
			return json.Marshal(k)
		}
	}
	return []byte("null"), nil
}

// ParseDeck decodes a deck from JSON.
func ParseDeck(r io.Reader) (*Deck, error) {
	return parseDeck(r, "")
}

func parseDeck(r io.Reader, source string) (*Deck, error) {
	var d Deck
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, &DeckError{Source: source, Err: err}
	}
	return &d, nil
}

// LoadDeck reads and decodes a deck file.
func LoadDeck(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deck: %w", err)
	}
	defer f.Close()
	return parseDeck(f, path)
}

//go:embed sample_deck.json
var sampleDeck []byte

// SampleDeck returns the built-in demonstration deck.
func SampleDeck() (*Deck, error) {
	return parseDeck(bytes.NewReader(sampleDeck), "sample")
}
