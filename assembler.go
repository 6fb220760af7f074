package autodeck

import (
	"context"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/VantageDataChat/autodeck/internal/logger"
)

// AssemblerOptions configures an Assembler. Zero values take defaults.
type AssemblerOptions struct {
	Canvas   Canvas
	Fit      FitOptions
	Metrics  FontMetrics
	Pipeline *Pipeline
	UseAI    bool
	Logger   *logger.Logger
	Tracer   trace.Tracer
}

// Assembler turns a deck into placement plans.
type Assembler struct {
	canvas   Canvas
	fit      FitOptions
	metrics  FontMetrics
	pipeline *Pipeline
	useAI    bool
	log      *logger.Logger
	tracer   trace.Tracer
}

// NewAssembler returns an assembler; zero options take the package defaults.
func NewAssembler(opts AssemblerOptions) *Assembler {
	a := &Assembler{
		canvas:   opts.Canvas,
		fit:      opts.Fit.withDefaults(),
		metrics:  opts.Metrics,
		pipeline: opts.Pipeline,
		useAI:    opts.UseAI,
		log:      opts.Logger,
		tracer:   opts.Tracer,
	}
	if !a.canvas.Bounds().Valid() {
		a.canvas = DefaultCanvas
	}
	if a.metrics == nil {
		a.metrics = HeuristicMetrics{}
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(tracerName)
	}
	if a.pipeline == nil {
		a.pipeline = NewPipeline(PipelineOptions{Logger: a.log, Tracer: a.tracer})
	}
	return a
}

// AssemblyResult holds the plans in deck order plus everything that went
// wrong along the way.
type AssemblyResult struct {
	Plans        []PlacementPlan `json:"plans"`
	Skipped      []SkippedSlide  `json:"skipped,omitempty"`
	Degradations []Degradation   `json:"degradations,omitempty"`
}

type laidOut struct {
	index   int
	spec    SlideSpec
	regions Regions
	variant Variant
	image   int // index into the acquired assets, -1 for none
}

// Assemble lays out every slide, acquires images concurrently, then fits,
// resolves and plans each slide in deck order. A slide whose type has no
// layout is skipped; image failures never abort a slide.
func (a *Assembler) Assemble(ctx context.Context, deck *Deck) (AssemblyResult, error) {
	var res AssemblyResult
	if deck == nil || len(deck.Slides) == 0 {
		return res, ErrNoSlides
	}
	ctx, span := a.tracer.Start(ctx, "autodeck.Assemble", trace.WithAttributes(
		attribute.Int("slides", len(deck.Slides)),
	))
	defer span.End()

	// Layout.
	var slides []laidOut
	var reqs []ImageRequest
	for i, s := range deck.Slides {
		regions, v, err := LayoutFor(s, i, a.canvas)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedSlide{Index: i, Err: err})
			a.log.Warn("slide skipped", "slide", i+1, "error", err)
			continue
		}
		lo := laidOut{index: i, spec: s, regions: regions, variant: v, image: -1}
		if _, ok := regions[RegionImage]; ok && !(s.Type == SlideChart && !s.ChartData.Empty()) {
			lo.image = len(reqs)
			reqs = append(reqs, PromptSourceOf(i, s))
		}
		slides = append(slides, lo)
	}
	if len(slides) == 0 {
		return res, &EmptyDeckError{Skipped: res.Skipped}
	}

	// Images.
	assets, err := a.pipeline.AcquireAll(ctx, reqs, a.useAI)
	if err != nil {
		return AssemblyResult{}, err
	}

	// Fit, resolve, plan.
	for _, lo := range slides {
		if err := ctx.Err(); err != nil {
			return AssemblyResult{}, err
		}
		var asset *ImageAsset
		if lo.image >= 0 {
			asset = &assets[lo.image]
		}
		plan := a.plan(lo, asset)
		for _, d := range plan.Degradations {
			a.log.Info("slide degraded", "slide", d.Slide+1, "kind", string(d.Kind), "region", string(d.Region), "detail", d.Detail)
		}
		res.Plans = append(res.Plans, plan)
		res.Degradations = append(res.Degradations, plan.Degradations...)
	}
	span.SetAttributes(
		attribute.Int("planned", len(res.Plans)),
		attribute.Int("skipped", len(res.Skipped)),
		attribute.Int("degradations", len(res.Degradations)),
	)
	return res, nil
}

// slideTexts maps each text region to its source text.
func slideTexts(s SlideSpec) map[RegionName]string {
	return map[RegionName]string{
		RegionTitle:    strings.TrimSpace(s.Title),
		RegionSubtitle: strings.TrimSpace(s.Subtitle),
		RegionSlogan:   strings.TrimSpace(s.Slogan),
		RegionBody:     strings.Join(s.Bullets, "\n"),
		RegionQuote:    strings.TrimSpace(s.Quote),
		RegionFooter:   strings.TrimSpace(s.Note),
	}
}

var regionRoles = map[RegionName]Role{
	RegionTitle:    RolePrimary,
	RegionSubtitle: RoleText,
	RegionSlogan:   RoleAccent,
	RegionBody:     RoleText,
	RegionQuote:    RoleQuote,
	RegionFooter:   RoleMuted,
}

func (a *Assembler) plan(lo laidOut, asset *ImageAsset) PlacementPlan {
	s := lo.spec
	plan := PlacementPlan{Index: lo.index, Type: s.Type, Variant: lo.variant, Anchor: AnchorNone}
	texts := slideTexts(s)
	chart := s.Type == SlideChart && !s.ChartData.Empty()
	hasImage := asset != nil || chart
	hasQuote := texts[RegionQuote] != ""

	// Text regions without content neither render nor block the quote.
	regions := lo.regions.Clone()
	for name := range regions {
		if name != RegionImage && name != RegionQuote && texts[name] == "" {
			delete(regions, name)
		}
	}
	_, templateHasImage := regions[RegionImage]
	if hasQuote && templateHasImage {
		quoteSize := BaseFontSize(s.Type, RegionQuote)
		regions, _ = GrowQuote(regions, texts[RegionQuote], quoteSize, a.metrics, a.fit, a.canvas)
	}
	res := NewResolver(a.canvas).Resolve(regions, hasImage, hasQuote)
	plan.Anchor = res.Anchor
	if res.Dropped {
		plan.Degradations = append(plan.Degradations, Degradation{Slide: lo.index, Kind: DegradeQuoteDropped, Region: RegionQuote})
	}

	for _, name := range res.Regions.Names() {
		box := res.Regions[name]
		if name == RegionImage {
			if chart {
				plan.Regions = append(plan.Regions, PlacedRegion{Name: name, Box: box, Content: &ChartContent{Data: s.ChartData}})
				continue
			}
			ic := &ImageContent{Asset: *asset}
			if asset.Source == SourcePlaceholder {
				ic.Caption = captionOf(s)
			}
			plan.Regions = append(plan.Regions, PlacedRegion{Name: name, Box: box, Content: ic})
			switch {
			case asset.Source == SourcePlaceholder && asset.Detail != "":
				plan.Degradations = append(plan.Degradations, Degradation{Slide: lo.index, Kind: DegradeImagePlaceholder, Region: name, Detail: asset.Detail})
			case asset.Source == SourceStock:
				plan.Degradations = append(plan.Degradations, Degradation{Slide: lo.index, Kind: DegradeImageStock, Region: name, Detail: asset.Detail})
			}
			continue
		}

		text := texts[name]
		if strings.TrimSpace(text) == "" {
			continue
		}
		fitted := Fit(text, textColumn(name, box), BaseFontSize(s.Type, name), a.metrics, a.fit)
		if fitted.Empty() {
			continue
		}
		if fitted.Truncated {
			plan.Degradations = append(plan.Degradations, Degradation{Slide: lo.index, Kind: DegradeTextTruncated, Region: name})
		}
		plan.Regions = append(plan.Regions, PlacedRegion{
			Name:    name,
			Box:     box,
			Content: &TextContent{Text: fitted, Role: regionRoles[name], Source: text},
		})
	}

	if asset != nil {
		plan.Notes = "Image prompt: " + asset.Prompt
	}
	return plan
}

// bulletIndent is the hanging indent of body bullets in points.
const bulletIndent = 14.0

// textColumn is the box the text of a region wraps in. Body paragraphs are
// bulleted and sit bulletIndent to the right of the box edge.
func textColumn(name RegionName, box Box) Box {
	if name == RegionBody {
		box.W = math.Max(0, box.W-bulletIndent)
	}
	return box
}

func captionOf(s SlideSpec) string {
	if d := strings.TrimSpace(s.ImageDesc); d != "" {
		return d
	}
	return strings.TrimSpace(s.Title)
}
