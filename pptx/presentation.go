// Package pptx writes PowerPoint presentation files (.pptx) following the
// Office Open XML (OOXML) standard.
//
// It is the rendering backend of autodeck. Slides hold shapes at absolute
// EMU coordinates: text boxes whose lines are already broken, pictures,
// filled rectangles and clustered column charts. A Writer packages them as
// a single zip container; Inspect reads one back.
package pptx

import "time"

// Default slide size, 16:9 at 10 x 5.625 in.
const (
	DefaultWidth  = 10 * EMUPerInch
	DefaultHeight = 5625 * EMUPerInch / 1000
)

// Presentation is an in-memory deck.
type Presentation struct {
	Props  Properties
	Scheme Scheme

	width  int64
	height int64
	slides []*Slide
}

// New returns an empty 16:9 presentation with the default scheme.
func New() *Presentation {
	return &Presentation{
		Props:  Properties{Creator: "autodeck", Created: time.Now()},
		Scheme: DefaultScheme(),
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// SetSize sets the slide size in EMU. Non-positive values keep the current
// dimension.
func (p *Presentation) SetSize(cx, cy int64) {
	if cx > 0 {
		p.width = cx
	}
	if cy > 0 {
		p.height = cy
	}
}

// Size returns the slide size in EMU.
func (p *Presentation) Size() (cx, cy int64) { return p.width, p.height }

// AddSlide appends an empty slide.
func (p *Presentation) AddSlide() *Slide {
	s := &Slide{}
	p.slides = append(p.slides, s)
	return s
}

// Slides returns the slides in order.
func (p *Presentation) Slides() []*Slide { return p.slides }

func (p *Presentation) hasNotes() bool {
	for _, s := range p.slides {
		if s.Notes != "" {
			return true
		}
	}
	return false
}

// Properties are the core document properties.
type Properties struct {
	Title    string
	Subject  string
	Creator  string
	Keywords string
	Created  time.Time
}

// Scheme is the colour and font scheme of the slide master (theme1.xml).
type Scheme struct {
	Name      string
	Dark      Color // dk1, default text
	Light     Color // lt1, default background
	Dark2     Color
	Light2    Color
	Accents   [6]Color
	Hyperlink Color
	Font      string
	EastAsian string
}

// DefaultScheme is a neutral Office-like scheme.
func DefaultScheme() Scheme {
	return Scheme{
		Name:   "autodeck",
		Dark:   Black,
		Light:  White,
		Dark2:  HexColor("44546A"),
		Light2: HexColor("E7E6E6"),
		Accents: [6]Color{
			HexColor("4472C4"), HexColor("ED7D31"), HexColor("A5A5A5"),
			HexColor("FFC000"), HexColor("5B9BD5"), HexColor("70AD47"),
		},
		Hyperlink: HexColor("0563C1"),
		Font:      "Calibri",
	}
}

// Slide is one slide: shapes in z-order, back to front.
type Slide struct {
	Name string
	// Background nil inherits the master background.
	Background *Color
	Notes      string
	Shapes     []Shape
}

// SetBackground sets a solid background colour.
func (s *Slide) SetBackground(c Color) { s.Background = &c }

// AddTextBox appends an empty text box.
func (s *Slide) AddTextBox() *TextBox {
	t := &TextBox{}
	s.Shapes = append(s.Shapes, t)
	return t
}

// AddPicture appends a picture holding encoded image data.
func (s *Slide) AddPicture(data []byte, mime string) *Picture {
	p := &Picture{Data: data, Mime: mime}
	s.Shapes = append(s.Shapes, p)
	return p
}

// AddRect appends a filled rectangle without outline.
func (s *Slide) AddRect(fill Color) *Rect {
	r := &Rect{Fill: Fill{Color: fill}}
	s.Shapes = append(s.Shapes, r)
	return r
}

// AddChart appends a clustered column chart over categories.
func (s *Slide) AddChart(categories []string) *Chart {
	c := &Chart{Categories: categories, Legend: true}
	s.Shapes = append(s.Shapes, c)
	return c
}
