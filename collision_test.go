package autodeck

import (
	"strings"
	"testing"
)

func contentRegions(t *testing.T, index int) Regions {
	t.Helper()
	regions, _, err := Layout(SlideContentImage, index, DefaultCanvas)
	if err != nil {
		t.Fatal(err)
	}
	return regions
}

func TestResolveRemovesAbsentRegions(t *testing.T) {
	regions := contentRegions(t, 0)
	res := Resolve(regions, false, false)
	if _, ok := res.Regions[RegionImage]; ok {
		t.Error("image region kept without an image")
	}
	if _, ok := res.Regions[RegionQuote]; ok {
		t.Error("quote region kept without a quote")
	}
	if res.Anchor != AnchorNone || res.Dropped {
		t.Errorf("unexpected resolution %+v", res)
	}
	if _, ok := regions[RegionQuote]; !ok {
		t.Error("Resolve mutated its input")
	}
}

func TestResolveKeepsTemplatePositionWithoutOverlap(t *testing.T) {
	regions := contentRegions(t, 0)
	res := Resolve(regions, true, true)
	if res.Moved || res.Dropped || res.Anchor != AnchorTemplate {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.Regions[RegionQuote] != regions[RegionQuote] {
		t.Fatal("quote moved although it did not overlap")
	}
}

func TestResolveFullOverlapRelocatesOrDrops(t *testing.T) {
	for idx := 0; idx < 3; idx++ {
		regions := contentRegions(t, idx)
		regions[RegionQuote] = regions[RegionImage]
		res := Resolve(regions, true, true)

		q, ok := res.Regions[RegionQuote]
		if !ok {
			if !res.Dropped {
				t.Fatalf("index %d: quote missing but not marked dropped", idx)
			}
			continue
		}
		if q.Intersects(res.Regions[RegionImage]) {
			t.Fatalf("index %d: quote %+v still overlaps image", idx, q)
		}
		if q.Intersects(res.Regions[RegionBody]) {
			t.Fatalf("index %d: quote %+v overlaps body", idx, q)
		}
		if !DefaultCanvas.Bounds().Contains(q) {
			t.Fatalf("index %d: relocated quote %+v outside canvas", idx, q)
		}
	}
}

func TestResolvePrefersBelowImage(t *testing.T) {
	regions := contentRegions(t, 0)
	img := regions[RegionImage]
	// Small quote straddling the image's bottom edge.
	regions[RegionQuote] = Box{X: img.X, Y: img.Bottom() - 10, W: 200, H: 20}
	res := Resolve(regions, true, true)
	if res.Anchor != AnchorBelowImage {
		t.Fatalf("anchor = %s, want %s", res.Anchor, AnchorBelowImage)
	}
	q := res.Regions[RegionQuote]
	if q.Y != img.Bottom()+QuoteGap {
		t.Fatalf("quote y = %v, want %v", q.Y, img.Bottom()+QuoteGap)
	}
}

func TestResolveDropsWhenNoCandidateFits(t *testing.T) {
	regions := Regions{
		RegionImage: Box{X: 0, Y: 0, W: 720, H: 405},
		RegionQuote: Box{X: 100, Y: 100, W: 300, H: 40},
	}
	res := Resolve(regions, true, true)
	if !res.Dropped {
		t.Fatalf("expected the quote to be dropped, got %+v", res)
	}
	if _, ok := res.Regions[RegionQuote]; ok {
		t.Fatal("dropped quote still present")
	}
}

func TestResolveKeepsQuoteOffTitle(t *testing.T) {
	regions := Regions{
		RegionTitle: Box{X: 0, Y: 0, W: 720, H: 60},
		RegionImage: Box{X: 100, Y: 100, W: 520, H: 290},
		RegionQuote: Box{X: 100, Y: 80, W: 520, H: 50},
	}
	// The only slot clear of the image is above it, across the title.
	res := Resolve(regions, true, true)
	if !res.Dropped {
		t.Fatalf("quote placed over the title: %+v", res.Regions[RegionQuote])
	}

	delete(regions, RegionTitle)
	res = Resolve(regions, true, true)
	if res.Anchor != AnchorAboveImage {
		t.Fatalf("anchor = %s, want %s", res.Anchor, AnchorAboveImage)
	}
	if q := res.Regions[RegionQuote]; q.Y != 100-QuoteGap-50 {
		t.Fatalf("quote y = %v", q.Y)
	}
}

func TestResolveKeepsQuoteOffFooter(t *testing.T) {
	regions := Regions{
		RegionImage:  Box{X: 100, Y: 40, W: 520, H: 290},
		RegionFooter: Box{X: 0, Y: 340, W: 720, H: 60},
		RegionQuote:  Box{X: 100, Y: 300, W: 520, H: 40},
	}
	res := Resolve(regions, true, true)
	if q, ok := res.Regions[RegionQuote]; ok {
		t.Fatalf("quote %+v kept although every slot hits the footer or image", q)
	}

	delete(regions, RegionFooter)
	res = Resolve(regions, true, true)
	if res.Anchor != AnchorBelowImage {
		t.Fatalf("anchor = %s, want %s", res.Anchor, AnchorBelowImage)
	}
}

func TestResolveMovesQuoteOffBodyWithoutImage(t *testing.T) {
	regions := contentRegions(t, 0)
	delete(regions, RegionFooter) // no footer text
	body := regions[RegionBody]
	regions[RegionQuote] = Box{X: body.X, Y: body.Bottom() - 10, W: body.W, H: 20}
	res := Resolve(regions, false, true)
	q, ok := res.Regions[RegionQuote]
	if !ok {
		t.Fatalf("quote dropped: %+v", res)
	}
	for _, name := range obstacles {
		if o, ok := res.Regions[name]; ok && q.Intersects(o) {
			t.Errorf("quote %+v overlaps %s %+v", q, name, o)
		}
	}
	if res.Anchor != AnchorBanner {
		t.Errorf("anchor = %s, want %s", res.Anchor, AnchorBanner)
	}
}

func TestGrowQuoteBottomFixedAndCapped(t *testing.T) {
	regions := contentRegions(t, 0)
	orig := regions[RegionQuote]
	text := strings.Repeat("A long pull quote that needs several lines to fit. ", 30)

	grown, changed := GrowQuote(regions, text, 14, nil, FitOptions{}, DefaultCanvas)
	if !changed {
		t.Fatal("expected growth")
	}
	q := grown[RegionQuote]
	if q.Bottom() != orig.Bottom() {
		t.Fatalf("bottom moved: %v -> %v", orig.Bottom(), q.Bottom())
	}
	if limit := orig.H + maxQuoteGrowth*DefaultCanvas.H; q.H > limit+1e-9 {
		t.Fatalf("height %v exceeds cap %v", q.H, limit)
	}
	if regions[RegionQuote] != orig {
		t.Fatal("GrowQuote mutated its input")
	}
}

func TestGrowQuoteShortTextUnchanged(t *testing.T) {
	regions := contentRegions(t, 0)
	_, changed := GrowQuote(regions, "Short.", 14, nil, FitOptions{}, DefaultCanvas)
	if changed {
		t.Fatal("short quote should not grow")
	}
}

func TestGrownQuoteIsResolved(t *testing.T) {
	regions := contentRegions(t, 0)
	text := "Know the enemy and know yourself; in a hundred battles you will never be in peril, and the quote keeps going on"
	grown, changed := GrowQuote(regions, text, 14, nil, FitOptions{}, DefaultCanvas)
	if !changed {
		t.Fatal("expected growth")
	}
	if !grown[RegionQuote].Intersects(grown[RegionImage]) {
		t.Fatal("test setup: grown quote should overlap the image")
	}
	res := Resolve(grown, true, true)
	if q, ok := res.Regions[RegionQuote]; ok && q.Intersects(res.Regions[RegionImage]) {
		t.Fatalf("quote %+v overlaps image after resolution", q)
	}
}
