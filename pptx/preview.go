package pptx

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// PreviewOptions configures slide thumbnails.
type PreviewOptions struct {
	// Width in pixels; height follows the slide aspect ratio. Default 960.
	Width int
	// Fonts resolves typefaces. Nil uses the embedded fonts only.
	Fonts *FontCache
}

func (o *PreviewOptions) withDefaults() PreviewOptions {
	out := PreviewOptions{}
	if o != nil {
		out = *o
	}
	if out.Width <= 0 {
		out.Width = 960
	}
	if out.Fonts == nil {
		out.Fonts = NewEmbeddedFontCache()
	}
	return out
}

// RenderSlide rasterizes one slide as a proofing aid. Lines are drawn as
// stored; nothing is re-wrapped.
func (p *Presentation) RenderSlide(index int, opts *PreviewOptions) (image.Image, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, fmt.Errorf("slide index %d out of range (0-%d)", index, len(p.slides)-1)
	}
	if p.width <= 0 || p.height <= 0 {
		return nil, fmt.Errorf("slide size %dx%d must be positive", p.width, p.height)
	}
	o := opts.withDefaults()
	scale := float64(o.Width) / float64(p.width)
	dc := gg.NewContext(o.Width, int(float64(p.height)*scale))

	s := p.slides[index]
	bg := White
	if s.Background != nil {
		bg = *s.Background
	}
	dc.SetColor(bg.NRGBA(0))
	dc.Clear()

	pv := &previewer{dc: dc, scale: scale, fonts: o.Fonts}
	for _, sh := range s.Shapes {
		switch v := sh.(type) {
		case *Rect:
			pv.fill(&v.Frame, v.Fill)
		case *TextBox:
			if v.Fill != nil {
				pv.fill(&v.Frame, *v.Fill)
			}
			pv.text(v)
		case *Picture:
			pv.picture(v)
		case *Chart:
			pv.chart(v)
		}
	}
	return dc.Image(), nil
}

// SavePreviews writes slide-01.png, slide-02.png, ... into dir and returns
// the paths written.
func (p *Presentation) SavePreviews(dir string, opts *PreviewOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview directory: %w", err)
	}
	o := opts.withDefaults()
	paths := make([]string, 0, len(p.slides))
	for i := range p.slides {
		data, err := p.EncodePreview(i, &o)
		if err != nil {
			return paths, err
		}
		out := filepath.Join(dir, fmt.Sprintf("slide-%02d.png", i+1))
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return paths, fmt.Errorf("slide %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// EncodePreview renders one slide as PNG bytes.
func (p *Presentation) EncodePreview(index int, opts *PreviewOptions) ([]byte, error) {
	img, err := p.RenderSlide(index, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- previewer ---

type previewer struct {
	dc    *gg.Context
	scale float64 // pixels per EMU
	fonts *FontCache
}

func (pv *previewer) px(v int64) float64 { return float64(v) * pv.scale }

func (pv *previewer) box(f *Frame) (x, y, w, h float64) {
	return pv.px(f.X), pv.px(f.Y), pv.px(f.W), pv.px(f.H)
}

func (pv *previewer) fill(f *Frame, fill Fill) {
	x, y, w, h := pv.box(f)
	pv.dc.DrawRectangle(x, y, w, h)
	pv.dc.SetColor(fill.Color.NRGBA(fill.Opacity))
	pv.dc.Fill()
}

func (pv *previewer) useFont(f Font) {
	name := f.Family
	if f.EastAsian != "" {
		name = f.EastAsian
	}
	pv.dc.SetFontFace(pv.fonts.FaceOrFallback(name, pv.px(Points(f.Size)), f.Bold, f.Italic))
}

// lineHeight is the tallest run of a line at single spacing.
func lineHeight(l Line) float64 {
	size := 0.0
	for _, r := range l {
		size = max(size, r.Font.Size)
	}
	if size == 0 {
		size = 18
	}
	return size * 1.2
}

func (pv *previewer) text(t *TextBox) {
	x, y, w, h := pv.box(&t.Frame)
	if in := t.Insets; in != nil {
		x += pv.px(in.Left)
		y += pv.px(in.Top)
		w -= pv.px(in.Left) + pv.px(in.Right)
		h -= pv.px(in.Top) + pv.px(in.Bottom)
	}

	// Measure first so the block can be anchored.
	total := 0.0
	for _, para := range t.Paragraphs {
		for _, l := range para.Lines {
			total += pv.px(Points(lineHeight(l))) * spacing(para)
		}
	}
	switch t.Anchor {
	case AnchorMiddle:
		y += (h - total) / 2
	case AnchorBottom:
		y += h - total
	}

	for _, para := range t.Paragraphs {
		left := x + pv.px(para.Margin)
		for i, l := range para.Lines {
			lh := pv.px(Points(lineHeight(l))) * spacing(para)
			y += lh
			baseline := y - lh*0.25
			if i == 0 && para.Bullet != nil && len(l) > 0 {
				pv.useFont(l[0].Font)
				pv.dc.SetColor(para.Bullet.Color.NRGBA(0))
				pv.dc.DrawString(para.Bullet.Char, left+pv.px(para.Indent), baseline)
			}
			pv.line(l, left, w-(left-x), baseline, para.Align)
		}
	}
}

func spacing(p *Paragraph) float64 {
	if p.LineSpacing <= 0 {
		return 1
	}
	return float64(p.LineSpacing) / 100
}

func (pv *previewer) line(l Line, x, w, baseline float64, align Align) {
	widths := make([]float64, len(l))
	total := 0.0
	for i, r := range l {
		pv.useFont(r.Font)
		widths[i], _ = pv.dc.MeasureString(r.Text)
		total += widths[i]
	}
	switch align {
	case AlignCenter:
		x += (w - total) / 2
	case AlignRight:
		x += w - total
	}
	for i, r := range l {
		pv.useFont(r.Font)
		pv.dc.SetColor(r.Font.Color.NRGBA(0))
		pv.dc.DrawString(r.Text, x, baseline)
		x += widths[i]
	}
}

func (pv *previewer) picture(p *Picture) {
	x, y, w, h := pv.box(&p.Frame)
	src, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil || w < 1 || h < 1 {
		pv.dc.SetColor(color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		pv.dc.DrawRectangle(x, y, w, h)
		pv.dc.Stroke()
		return
	}
	pv.dc.DrawImage(imaging.Resize(src, int(w), int(h), imaging.Lanczos), int(x), int(y))
}

// chart paints clustered columns scaled to the largest value.
func (pv *previewer) chart(c *Chart) {
	x, y, w, h := pv.box(&c.Frame)
	if len(c.Series) == 0 || len(c.Categories) == 0 {
		return
	}
	top := 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			top = max(top, v)
		}
	}
	if top <= 0 {
		return
	}

	axis := color.NRGBA{R: 217, G: 217, B: 217, A: 255}
	if c.Gridlines != nil {
		axis = c.Gridlines.NRGBA(0)
	}
	pv.dc.SetColor(axis)
	pv.dc.SetLineWidth(1)
	pv.dc.DrawLine(x, y+h, x+w, y+h)
	pv.dc.Stroke()

	group := w / float64(len(c.Categories))
	bar := group * 0.8 / float64(len(c.Series))
	for ci := range c.Categories {
		for si, s := range c.Series {
			bh := h * 0.9 * max(s.Value(ci), 0) / top
			bx := x + float64(ci)*group + group*0.1 + float64(si)*bar
			pv.dc.DrawRectangle(bx, y+h-bh, bar, bh)
			pv.dc.SetColor(s.Color.NRGBA(0))
			pv.dc.Fill()
		}
	}
}
