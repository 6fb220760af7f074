package autodeck

import (
	"fmt"
	"sort"
)

// RegionName names a rectangular area within a slide template.
type RegionName string

const (
	RegionTitle    RegionName = "title"
	RegionSubtitle RegionName = "subtitle"
	RegionSlogan   RegionName = "slogan"
	RegionBody     RegionName = "body"
	RegionImage    RegionName = "image"
	RegionQuote    RegionName = "quote"
	RegionFooter   RegionName = "footer"
)

// regionOrder is the drawing order of regions on a slide.
var regionOrder = []RegionName{
	RegionImage, RegionTitle, RegionSubtitle, RegionSlogan, RegionBody, RegionQuote, RegionFooter,
}

// Regions maps region names to boxes on the canvas.
type Regions map[RegionName]Box

// Clone returns an independent copy.
func (r Regions) Clone() Regions {
	out := make(Regions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Names returns the region names in drawing order.
func (r Regions) Names() []RegionName {
	var names []RegionName
	for _, n := range regionOrder {
		if _, ok := r[n]; ok {
			names = append(names, n)
		}
	}
	var extra []string
	for n := range r {
		if !knownRegion(n) {
			extra = append(extra, string(n))
		}
	}
	sort.Strings(extra)
	for _, n := range extra {
		names = append(names, RegionName(n))
	}
	return names
}

func knownRegion(n RegionName) bool {
	for _, k := range regionOrder {
		if k == n {
			return true
		}
	}
	return false
}

// Variant identifies one of the six layout templates.
type Variant int

const (
	VariantLeftText Variant = iota + 1
	VariantRightText
	VariantTopText
	VariantCover
	VariantSection
	VariantEnding
)

var variantNames = map[Variant]string{
	VariantLeftText:  "left_text",
	VariantRightText: "right_text",
	VariantTopText:   "top_text",
	VariantCover:     "cover",
	VariantSection:   "section",
	VariantEnding:    "ending",
}

// String returns the variant name used in outlines and reports.
func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// MarshalText encodes the variant by name.
func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Templates in inches on the 10 × 5.625 in reference canvas.
var (
	contentTitle  = InchBox(0.3, 0.3, 9.4, 0.8)
	contentQuote  = InchBox(0.3, 4.85, 9.4, 0.35)
	contentFooter = InchBox(0.3, 5.25, 9.4, 0.3)

	templates = map[Variant]Regions{
		VariantLeftText: {
			RegionTitle:  contentTitle,
			RegionBody:   InchBox(0.3, 1.3, 4.5, 3.5),
			RegionImage:  InchBox(5.0, 1.3, 4.5, 3.5),
			RegionQuote:  contentQuote,
			RegionFooter: contentFooter,
		},
		VariantRightText: {
			RegionTitle:  contentTitle,
			RegionBody:   InchBox(5.2, 1.3, 4.5, 3.5),
			RegionImage:  InchBox(0.5, 1.3, 4.5, 3.5),
			RegionQuote:  contentQuote,
			RegionFooter: contentFooter,
		},
		VariantTopText: {
			RegionTitle:  contentTitle,
			RegionBody:   InchBox(0.3, 1.2, 9.4, 1.5),
			RegionImage:  InchBox(2.5, 2.8, 5.0, 1.95),
			RegionQuote:  contentQuote,
			RegionFooter: contentFooter,
		},
		VariantCover: {
			RegionTitle:    InchBox(0.3, 1.5, 9.4, 1.5),
			RegionSubtitle: InchBox(0.5, 3.2, 9.0, 0.8),
			RegionSlogan:   InchBox(2.0, 4.5, 6.0, 0.6),
		},
		VariantSection: {
			RegionTitle:    InchBox(0.5, 2.3, 9.0, 1.0),
			RegionSubtitle: InchBox(1.0, 3.45, 8.0, 0.6),
		},
		VariantEnding: {
			RegionTitle: InchBox(0.5, 0.6, 9.0, 0.8),
			RegionBody:  InchBox(1.5, 1.6, 7.0, 2.8),
			RegionQuote: InchBox(1.0, 4.6, 8.0, 0.8),
		},
	}
)

// SectionBand is the primary-coloured strip behind a section title.
var SectionBand = InchBox(0, 2.3, 10, 1.0)

// Layout returns the region boxes of a slide type at a deck position,
// scaled onto canvas. content_image rotates through the three content
// variants by index; any type outside the enum fails with
// *UnsupportedSlideTypeError.
func Layout(t SlideType, index int, canvas Canvas) (Regions, Variant, error) {
	v, err := variantFor(t, index)
	if err != nil {
		return nil, 0, err
	}
	return variantRegions(v, canvas), v, nil
}

// LayoutFor is Layout honouring the slide's layout override.
func LayoutFor(spec SlideSpec, index int, canvas Canvas) (Regions, Variant, error) {
	if spec.Type == SlideContentImage && spec.Layout != LayoutAuto {
		v := Variant(spec.Layout)
		return variantRegions(v, canvas), v, nil
	}
	return Layout(spec.Type, index, canvas)
}

func variantFor(t SlideType, index int) (Variant, error) {
	switch t {
	case SlideCover:
		return VariantCover, nil
	case SlideSection:
		return VariantSection, nil
	case SlideChart:
		return VariantTopText, nil
	case SlideEnding:
		return VariantEnding, nil
	case SlideContentImage:
		if index < 0 {
			index = -index
		}
		return Variant(index%3) + VariantLeftText, nil
	}
	return 0, &UnsupportedSlideTypeError{Index: index, Type: t}
}

func variantRegions(v Variant, canvas Canvas) Regions {
	if !canvas.Bounds().Valid() {
		canvas = DefaultCanvas
	}
	tpl := templates[v]
	out := make(Regions, len(tpl))
	for name, b := range tpl {
		out[name] = canvas.scale(b)
	}
	return out
}

// BaseFontSize is the starting size in points of a region before fitting.
func BaseFontSize(t SlideType, region RegionName) float64 {
	switch region {
	case RegionTitle:
		switch t {
		case SlideCover, SlideSection:
			return 40
		case SlideEnding:
			return 36
		}
		return 28
	case RegionSubtitle:
		return 18
	case RegionSlogan:
		return 14
	case RegionBody:
		return 16
	case RegionQuote:
		if t == SlideEnding {
			return 16
		}
		return 14
	case RegionFooter:
		return 10
	}
	return 16
}
