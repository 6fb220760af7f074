package pptx

import "strings"

// Shape is anything placed on a slide: *TextBox, *Picture, *Rect or *Chart.
type Shape interface {
	frame() *Frame
}

// Frame is a shape's geometry in EMU plus its selection-pane name.
type Frame struct {
	X, Y, W, H int64
	Name       string
	// Alt is the accessibility description (descr attribute).
	Alt string
}

// Place sets the geometry.
func (f *Frame) Place(x, y, w, h int64) {
	f.X, f.Y, f.W, f.H = x, y, w, h
}

func (f *Frame) frame() *Frame { return f }

// --- Text ---

// Anchor is the vertical position of text inside its box.
type Anchor string

const (
	AnchorTop    Anchor = "t"
	AnchorMiddle Anchor = "ctr"
	AnchorBottom Anchor = "b"
)

// Align is horizontal paragraph alignment.
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
	AlignRight  Align = "r"
)

// Insets is text padding in EMU.
type Insets struct {
	Left, Top, Right, Bottom int64
}

// TextBox holds text that is already broken into lines. Every line but the
// last of a paragraph ends with an explicit break.
type TextBox struct {
	Frame
	Anchor Anchor
	// Fill nil leaves the box transparent.
	Fill *Fill
	// Insets nil keeps PowerPoint's default padding.
	Insets     *Insets
	Paragraphs []*Paragraph
}

// AddParagraph appends an empty paragraph.
func (t *TextBox) AddParagraph(align Align) *Paragraph {
	p := &Paragraph{Align: align}
	t.Paragraphs = append(t.Paragraphs, p)
	return p
}

// Text returns the paragraphs joined by newlines.
func (t *TextBox) Text() string {
	parts := make([]string, len(t.Paragraphs))
	for i, p := range t.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// Paragraph is one paragraph of a text box.
type Paragraph struct {
	Align Align
	// Margin and Indent are in EMU; a negative Indent hangs the first line
	// under the bullet.
	Margin int64
	Indent int64
	// LineSpacing is a percentage of single spacing; 0 leaves it unset.
	LineSpacing int
	Bullet      *Bullet
	Lines       []Line
}

// Line is the runs of one visual line.
type Line []Run

// AddLine appends a line.
func (p *Paragraph) AddLine(runs ...Run) {
	p.Lines = append(p.Lines, Line(runs))
}

// Text returns the lines separated by single spaces.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for i, l := range p.Lines {
		if i > 0 {
			b.WriteByte(' ')
		}
		for _, r := range l {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// Run is text in one font.
type Run struct {
	Text string
	Font Font
}

// Font is run formatting.
type Font struct {
	Family    string
	EastAsian string
	Size      float64 // points
	Bold      bool
	Italic    bool
	Color     Color
}

// Bullet is a character bullet.
type Bullet struct {
	Char  string
	Color Color
}

// --- Pictures and fills ---

// Picture is an embedded PNG, JPEG or GIF image stretched to its frame.
type Picture struct {
	Frame
	Data []byte
	Mime string
}

// Rect is a filled rectangle without outline, used for bands and banners.
type Rect struct {
	Frame
	Fill Fill
}

// --- Charts ---

// Chart is a clustered column chart. All series share Categories.
type Chart struct {
	Frame
	Categories []string
	Series     []Series
	Legend     bool
	// GapWidth is the gap between category groups in percent of a bar;
	// 0 means 150.
	GapWidth int
	// Labels is the tick label font of both axes.
	Labels Font
	// Gridlines colours the value axis major gridlines; nil hides them.
	Gridlines *Color
}

// AddSeries appends a series.
func (c *Chart) AddSeries(name string, values []float64, fill Color) {
	c.Series = append(c.Series, Series{Name: name, Values: values, Color: fill})
}

// Series is one data series.
type Series struct {
	Name   string
	Values []float64
	Color  Color
}

// Value returns the value for category i; missing values are 0.
func (s Series) Value(i int) float64 {
	if i < len(s.Values) {
		return s.Values[i]
	}
	return 0
}
