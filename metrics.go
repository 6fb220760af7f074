package autodeck

import (
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/text/width"

	"github.com/VantageDataChat/autodeck/pptx"
)

// FontMetrics measures rendered string width in points at a font size.
type FontMetrics interface {
	Width(s string, size float64) float64
}

// Heuristic em fractions.
const (
	wideEm   = 1.0
	spaceEm  = 0.28
	narrowEm = 0.55
)

// HeuristicMetrics is a character-average-width model: East-Asian wide and
// fullwidth runes take a full em, spaces 0.28 em, everything else 0.55 em.
type HeuristicMetrics struct{}

// Width estimates the advance of s from per-class character widths.
func (HeuristicMetrics) Width(s string, size float64) float64 {
	var em float64
	for _, r := range s {
		em += runeEm(r)
	}
	return em * size
}

func runeEm(r rune) float64 {
	switch {
	case r == ' ' || r == '\t':
		return spaceEm
	case isWide(r):
		return wideEm
	case unicode.Is(unicode.Mn, r):
		return 0
	default:
		return narrowEm
	}
}

// isWide reports East-Asian wide or fullwidth runes. These break lines on
// their own, so CJK text wraps between characters.
func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// measureSize is the face size advances are taken at; unhinted advances
// scale linearly with size.
const measureSize = 100.0

// FaceMetrics measures with real glyph advances from an OpenType face. Runes
// the face lacks are measured by the heuristic. Safe for concurrent use.
type FaceMetrics struct {
	mu       sync.Mutex
	face     font.Face
	fallback HeuristicMetrics
}

// NewFaceMetrics resolves family through fonts, falling back to the embedded
// Go Regular face. A nil fonts uses an embedded-only cache.
func NewFaceMetrics(fonts *pptx.FontCache, family string) *FaceMetrics {
	if fonts == nil {
		fonts = pptx.NewEmbeddedFontCache()
	}
	face := fonts.MeasureFace(family, measureSize, false, false)
	if face == nil {
		face = fonts.MeasureFace(pptx.FallbackFontName, measureSize, false, false)
	}
	return &FaceMetrics{face: face}
}

// Width measures s with the loaded face, falling back to the heuristic
// when no face could be loaded.
func (m *FaceMetrics) Width(s string, size float64) float64 {
	if m.face == nil {
		return m.fallback.Width(s, size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	prev := rune(-1)
	for _, r := range s {
		adv, ok := m.face.GlyphAdvance(r)
		if !ok {
			total += runeEm(r) * measureSize
			prev = -1
			continue
		}
		if prev >= 0 {
			total += float64(m.face.Kern(prev, r)) / 64
		}
		total += float64(adv) / 64
		prev = r
	}
	return total * size / measureSize
}
