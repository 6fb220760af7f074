package pptx

import (
	"errors"
	"fmt"
)

// Validate reports every structural problem of the presentation joined into
// one error, or nil when it can be written.
func (p *Presentation) Validate() error {
	var errs []error
	if p.width <= 0 || p.height <= 0 {
		errs = append(errs, fmt.Errorf("slide size %dx%d must be positive", p.width, p.height))
	}
	if len(p.slides) == 0 {
		errs = append(errs, errors.New("presentation must have at least one slide"))
	}
	for i, s := range p.slides {
		for j, sh := range s.Shapes {
			if err := p.validateShape(sh); err != nil {
				errs = append(errs, fmt.Errorf("slide %d shape %d: %w", i+1, j+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Presentation) validateShape(sh Shape) error {
	if sh == nil {
		return errors.New("shape is nil")
	}
	var errs []error
	f := sh.frame()
	if f.W < 0 || f.H < 0 {
		errs = append(errs, errors.New("negative size"))
	}
	if !p.contains(f) {
		errs = append(errs, errors.New("extends beyond the slide"))
	}

	switch v := sh.(type) {
	case *Picture:
		if len(v.Data) == 0 {
			errs = append(errs, errors.New("picture has no image data"))
		}
		if _, ok := mediaExt[v.Mime]; !ok {
			errs = append(errs, fmt.Errorf("unsupported image type %q", v.Mime))
		}
	case *Chart:
		if len(v.Categories) == 0 {
			errs = append(errs, errors.New("chart has no categories"))
		}
		if len(v.Series) == 0 {
			errs = append(errs, errors.New("chart has no series"))
		}
	case *TextBox:
		for k, para := range v.Paragraphs {
			if para == nil {
				errs = append(errs, fmt.Errorf("paragraph %d is nil", k+1))
				continue
			}
			for _, line := range para.Lines {
				for _, r := range line {
					if r.Font.Size <= 0 {
						errs = append(errs, fmt.Errorf("paragraph %d: run %q has no font size", k+1, r.Text))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

// contains reports whether f lies on the slide. A one-EMU tolerance absorbs
// point-to-EMU rounding.
func (p *Presentation) contains(f *Frame) bool {
	const tol = 1
	return f.X >= -tol && f.Y >= -tol && f.X+f.W <= p.width+tol && f.Y+f.H <= p.height+tol
}
