package autodeck

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncationMarker is appended to the last kept line of truncated text.
const TruncationMarker = "…"

// FitOptions tunes the fitter. Zero fields take the defaults.
type FitOptions struct {
	Step        float64 `yaml:"step" json:"step"`
	MinSize     float64 `yaml:"min_size" json:"min_size"`
	LineSpacing float64 `yaml:"line_spacing" json:"line_spacing"`
}

// DefaultFitOptions returns step 1 pt, floor 8 pt, line spacing 1.2.
func DefaultFitOptions() FitOptions {
	return FitOptions{Step: 1, MinSize: 8, LineSpacing: 1.2}
}

func (o FitOptions) withDefaults() FitOptions {
	d := DefaultFitOptions()
	if o.Step > 0 {
		d.Step = o.Step
	}
	if o.MinSize > 0 {
		d.MinSize = o.MinSize
	}
	if o.LineSpacing > 0 {
		d.LineSpacing = o.LineSpacing
	}
	return d
}

// FittedText is text wrapped into a box at a chosen size.
type FittedText struct {
	Lines []string `json:"lines"`
	// Paragraphs[i] is the source paragraph (0-based, split on '\n') of Lines[i].
	Paragraphs  []int   `json:"paragraphs"`
	FontSize    float64 `json:"font_size"`
	LineSpacing float64 `json:"line_spacing"`
	Truncated   bool    `json:"truncated,omitempty"`
}

// Height is the vertical extent of the fitted lines.
func (f FittedText) Height() float64 {
	return float64(len(f.Lines)) * f.FontSize * f.LineSpacing
}

// Empty reports whether there is nothing to draw.
func (f FittedText) Empty() bool { return len(f.Lines) == 0 }

// Fit wraps text into box starting at base points and shrinking by
// opts.Step down to opts.MinSize. When even the floor does not fit, the text
// is cut to the lines that fit and marked Truncated. It never fails and is
// deterministic for a given metrics implementation.
func Fit(text string, box Box, base float64, m FontMetrics, opts FitOptions) FittedText {
	o := opts.withDefaults()
	if m == nil {
		m = HeuristicMetrics{}
	}
	out := FittedText{FontSize: base, LineSpacing: o.LineSpacing}
	if strings.TrimSpace(text) == "" || base <= 0 {
		return out
	}

	paras := tokenize(text)
	size := base
	for {
		lines, idx := wrap(paras, box.W, size, m)
		if fitsHeight(len(lines), size, o.LineSpacing, box.H) {
			out.Lines, out.Paragraphs, out.FontSize = lines, idx, size
			return out
		}
		if size-o.Step < o.MinSize {
			out.FontSize = size
			out.Lines, out.Paragraphs = truncate(lines, idx, box, size, o.LineSpacing, m)
			out.Truncated = true
			return out
		}
		size -= o.Step
	}
}

func fitsHeight(n int, size, spacing, h float64) bool {
	const eps = 1e-9
	return float64(n)*size*spacing <= h+eps
}

// truncate keeps the lines that fit box.H and ends the last one with the
// marker, dropping runes until line plus marker fits the width.
func truncate(lines []string, idx []int, box Box, size, spacing float64, m FontMetrics) ([]string, []int) {
	keep := int(math.Floor(box.H/(size*spacing) + 1e-9))
	if keep <= 0 {
		return nil, nil
	}
	if keep > len(lines) {
		keep = len(lines)
	}
	kept := append([]string(nil), lines[:keep]...)
	keptIdx := append([]int(nil), idx[:keep]...)

	last := strings.TrimRightFunc(kept[keep-1], unicode.IsSpace)
	for last != "" && m.Width(last+TruncationMarker, size) > box.W {
		_, n := utf8.DecodeLastRuneInString(last)
		last = strings.TrimRightFunc(last[:len(last)-n], unicode.IsSpace)
	}
	kept[keep-1] = last + TruncationMarker
	return kept, keptIdx
}

// token is an unbreakable unit: a run of narrow non-space runes or a single
// wide rune. space records whitespace before it.
type token struct {
	text  string
	space bool
}

type paragraph struct {
	index  int
	tokens []token
}

// tokenize splits text into paragraphs on '\n' and each paragraph into
// tokens. Blank paragraphs produce no tokens and therefore no lines.
func tokenize(text string) []paragraph {
	var out []paragraph
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		var toks []token
		var cur strings.Builder
		space := false
		flush := func() {
			if cur.Len() > 0 {
				toks = append(toks, token{text: cur.String(), space: space})
				cur.Reset()
				space = false
			}
		}
		for _, r := range raw {
			switch {
			case unicode.IsSpace(r):
				flush()
				space = len(toks) > 0
			case isWide(r):
				flush()
				toks = append(toks, token{text: string(r), space: space})
				space = false
			default:
				cur.WriteRune(r)
			}
		}
		flush()
		if len(toks) > 0 {
			out = append(out, paragraph{index: i, tokens: toks})
		}
	}
	return out
}

// wrap greedily packs tokens into lines no wider than w. A token wider than
// w occupies a line alone.
func wrap(paras []paragraph, w, size float64, m FontMetrics) ([]string, []int) {
	var lines []string
	var idx []int
	spaceW := m.Width(" ", size)
	for _, p := range paras {
		var line strings.Builder
		lineW := 0.0
		for _, t := range p.tokens {
			tw := m.Width(t.text, size)
			if line.Len() == 0 {
				line.WriteString(t.text)
				lineW = tw
				continue
			}
			gap := 0.0
			if t.space {
				gap = spaceW
			}
			if lineW+gap+tw <= w {
				if t.space {
					line.WriteByte(' ')
				}
				line.WriteString(t.text)
				lineW += gap + tw
				continue
			}
			lines = append(lines, line.String())
			idx = append(idx, p.index)
			line.Reset()
			line.WriteString(t.text)
			lineW = tw
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
			idx = append(idx, p.index)
		}
	}
	return lines, idx
}
