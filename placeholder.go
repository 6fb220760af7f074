package autodeck

import (
	"bytes"
	"hash/fnv"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"
)

// PlaceholderLabel is painted across every placeholder image.
const PlaceholderLabel = "IMAGE PLACEHOLDER"

var (
	placeholderFontOnce sync.Once
	placeholderFont     *truetype.Font
)

func labelFont() *truetype.Font {
	placeholderFontOnce.Do(func() {
		placeholderFont, _ = truetype.Parse(goregular.TTF)
	})
	return placeholderFont
}

// Placeholder paints a deterministic size×size PNG whose tint is derived
// from the prompt. Identical inputs give byte-identical output.
func Placeholder(prompt string, size int) ([]byte, error) {
	if size <= 0 {
		size = ImageSize
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	hue := float64(h.Sum32() % 360)

	bg := colorful.Hsl(hue, 0.35, 0.92)
	stripe := colorful.Hsl(hue, 0.40, 0.84)
	ink := colorful.Hsl(hue, 0.45, 0.38)

	s := float64(size)
	dc := gg.NewContext(size, size)
	dc.SetColor(bg)
	dc.Clear()

	// Diagonal stripes.
	dc.SetColor(stripe)
	dc.SetLineWidth(s / 40)
	step := s / 12
	for off := -s; off < s; off += step {
		dc.DrawLine(off, s, off+s, 0)
	}
	dc.Stroke()

	// Frame.
	inset := s / 32
	dc.SetColor(ink)
	dc.SetLineWidth(s / 128)
	dc.DrawRectangle(inset, inset, s-2*inset, s-2*inset)
	dc.Stroke()

	if f := labelFont(); f != nil {
		face := truetype.NewFace(f, &truetype.Options{Size: s / 18})
		dc.SetFontFace(face)
		label := PlaceholderLabel
		tw, th := dc.MeasureString(label)
		pad := s / 40
		dc.SetColor(bg)
		dc.DrawRectangle(s/2-tw/2-pad, s/2-th/2-pad, tw+2*pad, th+2*pad)
		dc.Fill()
		dc.SetColor(ink)
		dc.DrawStringAnchored(label, s/2, s/2, 0.5, 0.5)
		_ = face.Close()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
