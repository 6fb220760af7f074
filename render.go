package autodeck

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/VantageDataChat/autodeck/pptx"
)

const (
	bulletChar = "•"
	captionH   = 18.0 // points
	quoteTint  = 0.88
	// fitLineSpacing is what PowerPoint's 100% line spacing corresponds to
	// in the fitter's line model.
	fitLineSpacing = 1.2
)

// Renderer turns placement plans into a presentation on a canvas.
type Renderer struct {
	Canvas Canvas
}

// Render renders on the default canvas.
func Render(theme Theme, plans []PlacementPlan, meta Metadata) (*pptx.Presentation, error) {
	return Renderer{Canvas: DefaultCanvas}.Render(theme, plans, meta)
}

// Render writes every plan as one slide, in order.
func (r Renderer) Render(theme Theme, plans []PlacementPlan, meta Metadata) (*pptx.Presentation, error) {
	if len(plans) == 0 {
		return nil, errors.New("render: no placement plans")
	}
	canvas := r.Canvas
	if !canvas.Bounds().Valid() {
		canvas = DefaultCanvas
	}

	p := pptx.New()
	p.SetSize(pptx.Points(canvas.W), pptx.Points(canvas.H))
	p.Scheme = scheme(theme)
	p.Props.Title = meta.Title
	p.Props.Subject = meta.Subject
	if meta.Author != "" {
		p.Props.Creator = meta.Author
	}

	for i := range plans {
		sr := slideRenderer{theme: theme, canvas: canvas, plan: &plans[i], slide: p.AddSlide()}
		if err := sr.render(); err != nil {
			return nil, fmt.Errorf("render slide %d: %w", plans[i].Index+1, err)
		}
	}
	return p, nil
}

func scheme(t Theme) pptx.Scheme {
	c := func(r Role) pptx.Color { return pptx.HexColor(t.Color(r)) }
	return pptx.Scheme{
		Name:   t.Name,
		Dark:   c(RoleText),
		Light:  pptx.White,
		Dark2:  c(RolePrimary),
		Light2: c(RoleBackground),
		Accents: [6]pptx.Color{
			c(RolePrimary), c(RoleAccent), c(RoleChart),
			c(RoleQuote), c(RoleMuted), c(RoleText),
		},
		Hyperlink: c(RoleAccent),
		Font:      t.FontFamily,
		EastAsian: t.EastAsianFont,
	}
}

type slideRenderer struct {
	theme  Theme
	canvas Canvas
	plan   *PlacementPlan
	slide  *pptx.Slide
}

func (sr *slideRenderer) color(role Role) pptx.Color {
	return pptx.HexColor(sr.theme.Color(role))
}

func (sr *slideRenderer) render() error {
	sr.slide.Name = fmt.Sprintf("%s %d", sr.plan.Type, sr.plan.Index+1)
	sr.background()
	for _, reg := range sr.plan.Regions {
		switch c := reg.Content.(type) {
		case *TextContent:
			sr.text(reg.Name, reg.Box, c)
		case *ImageContent:
			sr.image(reg.Box, c)
		case *ChartContent:
			sr.chart(reg.Box, c)
		default:
			return fmt.Errorf("region %s: unsupported content %T", reg.Name, reg.Content)
		}
	}
	sr.slide.Notes = sr.plan.Notes
	return nil
}

func (sr *slideRenderer) background() {
	switch sr.plan.Type {
	case SlideCover:
		sr.slide.SetBackground(sr.color(RolePrimary))
	case SlideSection:
		sr.slide.SetBackground(sr.color(RoleBackground))
		band := sr.slide.AddRect(sr.color(RolePrimary))
		place(&band.Frame, sr.canvas.scale(SectionBand))
		band.Name = "Section band"
	default:
		sr.slide.SetBackground(sr.color(RoleBackground))
	}
}

func place(f *pptx.Frame, box Box) {
	f.Place(pptx.Points(box.X), pptx.Points(box.Y), pptx.Points(box.W), pptx.Points(box.H))
}

type textStyle struct {
	color  pptx.Color
	bold   bool
	italic bool
	align  pptx.Align
	anchor pptx.Anchor
	bullet bool
}

func (sr *slideRenderer) style(name RegionName, role Role) textStyle {
	st := textStyle{color: sr.color(role), align: pptx.AlignLeft, anchor: pptx.AnchorTop}
	centered := sr.plan.Type == SlideCover || sr.plan.Type == SlideSection || sr.plan.Type == SlideEnding
	onPrimary := sr.plan.Type == SlideCover || (sr.plan.Type == SlideSection && name == RegionTitle)
	if centered {
		st.align = pptx.AlignCenter
	}

	switch name {
	case RegionTitle:
		st.bold = true
		st.anchor = pptx.AnchorMiddle
		if onPrimary {
			st.color = pptx.White
		}
	case RegionSubtitle:
		st.anchor = pptx.AnchorMiddle
		if onPrimary {
			st.color = pptx.White
		} else {
			st.color = sr.color(RoleMuted)
		}
	case RegionSlogan:
		st.italic = true
		st.anchor = pptx.AnchorMiddle
		st.color = sr.color(RoleAccent)
	case RegionBody:
		st.bullet = true
		st.align = pptx.AlignLeft
	case RegionQuote:
		st.italic = true
		st.anchor = pptx.AnchorMiddle
		st.align = pptx.AlignCenter
	case RegionFooter:
		st.color = sr.color(RoleMuted)
	}
	return st
}

// text writes the fitted lines of c. Each fitted line becomes one stored
// line so the deck breaks exactly where the fitter measured.
func (sr *slideRenderer) text(name RegionName, box Box, c *TextContent) {
	if name == RegionQuote {
		banner := sr.slide.AddRect(pptx.HexColor(Tint(sr.theme.Color(RoleQuote), quoteTint)))
		place(&banner.Frame, box)
		banner.Name = "Quote banner"
	}

	st := sr.style(name, c.Role)
	tb := sr.slide.AddTextBox()
	place(&tb.Frame, box)
	tb.Name = string(name)
	tb.Insets = &pptx.Insets{}
	tb.Anchor = st.anchor

	paras := strings.Split(c.Source, "\n")
	ft := c.Text
	spacing := int(math.Round(ft.LineSpacing / fitLineSpacing * 100))

	var para *pptx.Paragraph
	current := -1
	for i, line := range ft.Lines {
		pi := ft.Paragraphs[i]
		if pi == current {
			para.AddLine(sr.run(line, ft.FontSize, st, st.bold))
			continue
		}
		current = pi
		para = tb.AddParagraph(st.align)
		para.LineSpacing = spacing
		if !st.bullet {
			para.AddLine(sr.run(line, ft.FontSize, st, st.bold))
			continue
		}
		para.Bullet = &pptx.Bullet{Char: bulletChar, Color: sr.color(RoleAccent)}
		para.Margin = pptx.Points(bulletIndent)
		para.Indent = -pptx.Points(bulletIndent)
		head, ok := "", false
		if pi < len(paras) {
			head, ok = boldHead(paras[pi], line)
		}
		if !ok {
			para.AddLine(sr.run(line, ft.FontSize, st, st.bold))
			continue
		}
		runs := []pptx.Run{sr.run(head, ft.FontSize, st, true)}
		if rest := line[len(head):]; rest != "" {
			runs = append(runs, sr.run(rest, ft.FontSize, st, st.bold))
		}
		para.AddLine(runs...)
	}
}

// boldHead returns the "head:" prefix of a bullet when the first fitted
// line carries all of it.
func boldHead(source, firstLine string) (string, bool) {
	head, _, ok := splitHead(strings.TrimSpace(source))
	if !ok {
		return "", false
	}
	for _, sep := range []string{"：", ":"} {
		if p := head + sep; strings.HasPrefix(firstLine, p) {
			return p, true
		}
	}
	return "", false
}

func (sr *slideRenderer) font(size float64, c pptx.Color) pptx.Font {
	return pptx.Font{Family: sr.theme.FontFamily, EastAsian: sr.theme.EastAsianFont, Size: size, Color: c}
}

func (sr *slideRenderer) run(text string, size float64, st textStyle, bold bool) pptx.Run {
	f := sr.font(size, st.color)
	f.Bold, f.Italic = bold, st.italic
	return pptx.Run{Text: text, Font: f}
}

// image draws the asset inside box with its aspect ratio preserved.
func (sr *slideRenderer) image(box Box, c *ImageContent) {
	a := c.Asset
	if len(a.Data) == 0 {
		return
	}
	w, h := float64(a.Width), float64(a.Height)
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	scale := math.Min(box.W/w, box.H/h)
	dw, dh := w*scale, h*scale
	frame := Box{X: box.X + (box.W-dw)/2, Y: box.Y + (box.H-dh)/2, W: dw, H: dh}

	pic := sr.slide.AddPicture(a.Data, a.MimeType)
	place(&pic.Frame, frame)
	pic.Name = "Image"
	pic.Alt = a.Prompt

	if c.Caption == "" || frame.H <= captionH {
		return
	}
	capBox := Box{X: frame.X, Y: frame.Bottom() - captionH, W: frame.W, H: captionH}
	fitted := Fit(c.Caption, capBox, 10, nil, FitOptions{MinSize: 6})
	if fitted.Empty() {
		return
	}
	tb := sr.slide.AddTextBox()
	place(&tb.Frame, capBox)
	tb.Name = "Caption"
	tb.Insets = &pptx.Insets{}
	tb.Anchor = pptx.AnchorMiddle
	tb.Fill = &pptx.Fill{Color: pptx.White, Opacity: 70}
	tb.AddParagraph(pptx.AlignCenter).AddLine(
		sr.run(fitted.Lines[0], fitted.FontSize, textStyle{color: sr.color(RoleMuted), italic: true}, false))
}

var seriesRoles = []Role{RoleChart, RoleAccent, RolePrimary, RoleQuote}

func (sr *slideRenderer) chart(box Box, c *ChartContent) {
	ch := sr.slide.AddChart(c.Data.Labels)
	place(&ch.Frame, box)
	ch.Name = "Chart"
	for i, ds := range c.Data.Datasets {
		ch.AddSeries(ds.Name, ds.Values, sr.color(seriesRoles[i%len(seriesRoles)]))
	}
	grid := pptx.HexColor(Tint(sr.theme.Color(RoleMuted), 0.6))
	ch.Gridlines = &grid
	ch.Labels = sr.font(10, sr.color(RoleText))
	ch.Legend = len(c.Data.Datasets) > 1
}
