package autodeck

import (
	"encoding/json"
	"fmt"
)

// Content is what a placed region holds: *TextContent, *ImageContent or
// *ChartContent.
type Content interface {
	kind() string
}

// TextContent is fitted text drawn in a palette role.
type TextContent struct {
	Text FittedText `json:"text"`
	Role Role       `json:"role"`
	// Source is the unwrapped text, split into paragraphs on '\n'.
	Source string `json:"-"`
}

// ImageContent is an image fitted into its box.
type ImageContent struct {
	Asset   ImageAsset `json:"asset"`
	Caption string     `json:"caption,omitempty"`
}

// ChartContent is a native column chart.
type ChartContent struct {
	Data *ChartData `json:"data"`
}

func (*TextContent) kind() string  { return "text" }
func (*ImageContent) kind() string { return "image" }
func (*ChartContent) kind() string { return "chart" }

// PlacedRegion is a region's final box and content.
type PlacedRegion struct {
	Name    RegionName
	Box     Box
	Content Content
}

// MarshalJSON writes the region tagged with its content kind.
func (r PlacedRegion) MarshalJSON() ([]byte, error) {
	out := struct {
		Name    RegionName `json:"name"`
		Box     Box        `json:"box"`
		Kind    string     `json:"kind"`
		Content Content    `json:"content"`
	}{r.Name, r.Box, "", r.Content}
	if r.Content != nil {
		out.Kind = r.Content.kind()
	}
	return json.Marshal(out)
}

// DegradationKind classifies a reduced-fidelity outcome.
type DegradationKind string

const (
	DegradeTextTruncated    DegradationKind = "text_truncated"
	DegradeQuoteDropped     DegradationKind = "quote_dropped"
	DegradeImagePlaceholder DegradationKind = "image_placeholder"
	DegradeImageStock       DegradationKind = "image_stock"
)

// Degradation records that a slide was assembled with reduced fidelity.
// Slide is 0-based.
type Degradation struct {
	Slide  int             `json:"slide"`
	Kind   DegradationKind `json:"kind"`
	Region RegionName      `json:"region,omitempty"`
	Detail string          `json:"detail,omitempty"`
}

// String renders the run-output line, with a 1-based slide number.
func (d Degradation) String() string {
	var msg string
	switch d.Kind {
	case DegradeTextTruncated:
		msg = fmt.Sprintf("%s text truncated", d.Region)
	case DegradeQuoteDropped:
		msg = "quote dropped, no free position"
	case DegradeImagePlaceholder:
		msg = "image generation failed, placeholder used"
	case DegradeImageStock:
		msg = "image generation failed, stock image used"
	default:
		msg = string(d.Kind)
	}
	if d.Detail != "" {
		msg += " (" + d.Detail + ")"
	}
	return fmt.Sprintf("slide %d: %s", d.Slide+1, msg)
}

// SkippedSlide is a slide that could not be laid out. Index is 0-based.
type SkippedSlide struct {
	Index int
	Err   error
}

// String is the report line for the skipped slide, numbered from 1.
func (s SkippedSlide) String() string {
	return fmt.Sprintf("slide %d: skipped: %v", s.Index+1, s.Err)
}

// MarshalJSON writes the slide index and the reason text.
func (s SkippedSlide) MarshalJSON() ([]byte, error) {
	msg := ""
	if s.Err != nil {
		msg = s.Err.Error()
	}
	return json.Marshal(struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}{s.Index, msg})
}

// PlacementPlan is the final mapping of regions to boxes and content for one
// slide.
type PlacementPlan struct {
	Index        int            `json:"index"`
	Type         SlideType      `json:"type"`
	Variant      Variant        `json:"variant"`
	Regions      []PlacedRegion `json:"regions"`
	Anchor       Anchor         `json:"quote_anchor"`
	Notes        string         `json:"notes,omitempty"`
	Degradations []Degradation  `json:"degradations,omitempty"`
}

// Region returns the named region.
func (p *PlacementPlan) Region(name RegionName) (PlacedRegion, bool) {
	for _, r := range p.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return PlacedRegion{}, false
}
