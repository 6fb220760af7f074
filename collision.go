package autodeck

import "math"

// Anchor records where the quote ended up.
type Anchor string

const (
	AnchorTemplate   Anchor = "template"
	AnchorBelowImage Anchor = "below_image"
	AnchorAboveImage Anchor = "above_image"
	AnchorLeftOfBody Anchor = "left_of_body"
	AnchorBanner     Anchor = "banner"
	AnchorNone       Anchor = "none"
)

const (
	// QuoteGap separates a relocated quote from the image.
	QuoteGap = 6.0
	// QuoteMargin is the canvas margin of the banner candidate.
	QuoteMargin = 0.3 * PointsPerInch
	// maxQuoteGrowth caps quote growth as a fraction of canvas height.
	maxQuoteGrowth = 0.30
)

// Resolution is the outcome of quote/image conflict resolution.
type Resolution struct {
	Regions Regions
	Moved   bool
	Dropped bool
	Anchor  Anchor
}

// Resolver relocates the quote region away from the image region.
type Resolver struct {
	Canvas Canvas
	Gap    float64
	Margin float64
}

// NewResolver returns a resolver with the default gap and margin.
func NewResolver(canvas Canvas) Resolver {
	return Resolver{Canvas: canvas, Gap: QuoteGap, Margin: QuoteMargin}
}

// Resolve resolves on the default canvas.
func Resolve(regions Regions, hasImage, hasQuote bool) Resolution {
	return NewResolver(DefaultCanvas).Resolve(regions, hasImage, hasQuote)
}

type candidate struct {
	anchor Anchor
	box    Box
}

// obstacles are the text regions a relocated quote must stay clear of.
// Callers drop regions without content, so an empty footer never blocks.
var obstacles = []RegionName{RegionTitle, RegionBody, RegionFooter}

// Resolve removes regions that have no content and, when the quote overlaps
// the image or another text region, moves it to the best-ranked candidate.
// The returned quote overlaps neither; when no candidate is clear it is
// dropped.
func (r Resolver) Resolve(regions Regions, hasImage, hasQuote bool) Resolution {
	out := Resolution{Regions: regions.Clone(), Anchor: AnchorTemplate}
	if !hasImage {
		delete(out.Regions, RegionImage)
	}
	quote, ok := out.Regions[RegionQuote]
	if !hasQuote || !ok {
		delete(out.Regions, RegionQuote)
		out.Anchor = AnchorNone
		return out
	}
	img, hasImg := out.Regions[RegionImage]
	blocked := func(b Box) bool {
		for _, name := range obstacles {
			if o, ok := out.Regions[name]; ok && b.Intersects(o) {
				return true
			}
		}
		return false
	}
	if !(hasImg && quote.Intersects(img)) && !blocked(quote) {
		return out
	}

	body, hasBody := out.Regions[RegionBody]
	bounds := r.canvas().Bounds()
	var (
		best     candidate
		bestKey  [3]float64
		haveBest bool
	)
	for _, c := range r.candidates(quote, img, hasImg, body, hasBody) {
		if !c.box.Valid() || !bounds.Contains(c.box) {
			continue
		}
		key := [3]float64{
			boolRank(hasImg && c.box.Intersects(img)),
			boolRank(blocked(c.box)),
			c.box.Distance(quote),
		}
		// Strict comparison keeps the earlier candidate on ties.
		if !haveBest || rankLess(key, bestKey) {
			best, bestKey, haveBest = c, key, true
		}
	}

	if !haveBest || bestKey[0] > 0 || bestKey[1] > 0 {
		delete(out.Regions, RegionQuote)
		out.Dropped = true
		out.Anchor = AnchorNone
		return out
	}
	out.Regions[RegionQuote] = best.box
	out.Moved = true
	out.Anchor = best.anchor
	return out
}

func (r Resolver) canvas() Canvas {
	if !r.Canvas.Bounds().Valid() {
		return DefaultCanvas
	}
	return r.Canvas
}

func (r Resolver) candidates(q, img Box, hasImg bool, body Box, hasBody bool) []candidate {
	c := r.canvas()
	var out []candidate
	if hasImg {
		cx, _ := img.Center()
		x := clamp(cx-q.W/2, 0, math.Max(0, c.W-q.W))
		out = append(out,
			candidate{AnchorBelowImage, Box{X: x, Y: img.Bottom() + r.Gap, W: q.W, H: q.H}},
			candidate{AnchorAboveImage, Box{X: x, Y: img.Y - r.Gap - q.H, W: q.W, H: q.H}},
		)
	}
	if hasBody {
		out = append(out, candidate{AnchorLeftOfBody, Box{X: body.X - r.Gap - q.W, Y: body.Y, W: q.W, H: q.H}})
	}
	out = append(out, candidate{AnchorBanner, Box{
		X: r.Margin,
		Y: c.H - r.Margin - q.H,
		W: c.W - 2*r.Margin,
		H: q.H,
	}})
	return out
}

// GrowQuote grows the quote box upward, bottom edge fixed, when the quote
// wrapped at size needs more height than the template gives it. Growth is
// capped at 30% of the canvas height. It reports whether the box changed.
func GrowQuote(regions Regions, text string, size float64, m FontMetrics, opts FitOptions, canvas Canvas) (Regions, bool) {
	q, ok := regions[RegionQuote]
	if !ok || text == "" {
		return regions, false
	}
	if m == nil {
		m = HeuristicMetrics{}
	}
	if !canvas.Bounds().Valid() {
		canvas = DefaultCanvas
	}
	o := opts.withDefaults()
	lines, _ := wrap(tokenize(text), q.W, size, m)
	need := float64(len(lines)) * size * o.LineSpacing
	if need <= q.H {
		return regions, false
	}
	h := math.Min(need, q.H+maxQuoteGrowth*canvas.H)
	bottom := q.Bottom()
	y := math.Max(0, bottom-h)

	out := regions.Clone()
	out[RegionQuote] = Box{X: q.X, Y: y, W: q.W, H: bottom - y}
	return out, true
}

func boolRank(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func rankLess(a, b [3]float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
