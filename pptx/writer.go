package pptx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer serializes a Presentation as a PPTX package.
type Writer struct {
	p *Presentation
}

// NewWriter creates a writer for p.
func NewWriter(p *Presentation) *Writer {
	return &Writer{p: p}
}

// Save writes the package to path. The file appears only once it is
// complete; on failure nothing is left at path.
func (w *Writer) Save(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".autodeck-*.pptx.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()

	_, writeErr := w.WriteTo(f)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move package into place: %w", err)
	}
	return nil
}

// WriteTo writes the package to out and reports the bytes written.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	if w.p == nil {
		return 0, fmt.Errorf("presentation is nil")
	}
	m, err := plan(w.p)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: out}
	zw := zip.NewWriter(cw)
	for _, pt := range w.parts(m) {
		fw, err := zw.Create(pt.name)
		if err != nil {
			return cw.n, fmt.Errorf("failed to add %s: %w", pt.name, err)
		}
		if _, err := fw.Write(pt.body); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish package: %w", err)
	}
	return cw.n, nil
}

// Save writes p to path.
func (p *Presentation) Save(path string) error { return NewWriter(p).Save(path) }

// WriteTo writes p as a PPTX package.
func (p *Presentation) WriteTo(out io.Writer) (int64, error) { return NewWriter(p).WriteTo(out) }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
