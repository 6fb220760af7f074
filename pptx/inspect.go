package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// Summary is a read-back view of a written .pptx: enough structure to verify
// what a build produced without a full object model.
type Summary struct {
	Slides int
	// Texts holds the visible text runs of each slide, in document order.
	Texts [][]string
	// Notes holds the speaker notes text of each slide ("" when absent).
	Notes  []string
	Media  []string
	Charts int
	Width  int64 // slide width in EMU
	Height int64 // slide height in EMU
}

// maxZipEntrySize is the maximum allowed size for a single file extracted from a ZIP.
const maxZipEntrySize = 50 << 20 // 50 MB

// maxZipTotalSize is the cumulative limit for an inspected archive.
const maxZipTotalSize = 200 << 20 // 200 MB

// maxZipEntries is the maximum number of files allowed in a ZIP archive.
const maxZipEntries = 10000

// InspectFile summarises the .pptx at path.
func InspectFile(p string) (*Summary, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return Inspect(f, info.Size())
}

// Inspect summarises a .pptx read from r.
func Inspect(r io.ReaderAt, size int64) (*Summary, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid reader size: %d", size)
	}
	if size > maxZipTotalSize {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", size, maxZipTotalSize)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	if len(zr.File) > maxZipEntries {
		return nil, fmt.Errorf("zip archive contains too many entries (%d > %d)", len(zr.File), maxZipEntries)
	}
	idx := zipIndex(zr)

	sum := &Summary{}
	pres, err := readPresentationXML(idx)
	if err != nil {
		return nil, err
	}
	sum.Width, sum.Height = pres.SldSz.CX, pres.SldSz.CY

	rels, err := readRelationships(idx, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels))
	for _, rel := range rels {
		targets[rel.ID] = rel.Target
	}

	for _, sld := range pres.SldIDs {
		target, ok := targets[sld.RID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", sld.RID)
		}
		slidePath := path.Join("ppt", target)
		data, err := readFileFromZip(idx, slidePath)
		if err != nil {
			return nil, err
		}
		texts, err := collectText(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", slidePath, err)
		}
		sum.Texts = append(sum.Texts, texts)
		sum.Notes = append(sum.Notes, readNotes(idx, slidePath))
	}
	sum.Slides = len(sum.Texts)

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "ppt/media/"):
			sum.Media = append(sum.Media, f.Name)
		case strings.HasPrefix(f.Name, "ppt/charts/") && strings.HasSuffix(f.Name, ".xml"):
			sum.Charts++
		}
	}
	sort.Strings(sum.Media)
	return sum, nil
}

// zipIndex builds a map from file name to *zip.File for O(1) lookups.
func zipIndex(zr *zip.Reader) map[string]*zip.File {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m[f.Name] = f
	}
	return m
}

func readFileFromZip(idx map[string]*zip.File, name string) ([]byte, error) {
	f, ok := idx[name]
	if !ok {
		return nil, fmt.Errorf("file not found in zip: %s", name)
	}
	if f.UncompressedSize64 > maxZipEntrySize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size (%d bytes)", name, maxZipEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxZipEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from zip: %w", name, err)
	}
	if int64(len(data)) > maxZipEntrySize {
		return nil, fmt.Errorf("file %s actual size exceeds maximum allowed size", name)
	}
	return data, nil
}

// --- Presentation reading ---

type xmlPresentationForRead struct {
	XMLName xml.Name `xml:"presentation"`
	SldIDs  []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	SldSz struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

func readPresentationXML(idx map[string]*zip.File) (*xmlPresentationForRead, error) {
	data, err := readFileFromZip(idx, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	var pres xmlPresentationForRead
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("failed to parse presentation.xml: %w", err)
	}
	return &pres, nil
}

// --- Relationship reading ---

type xmlRelForRead struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlRelsForRead struct {
	XMLName       xml.Name        `xml:"Relationships"`
	Relationships []xmlRelForRead `xml:"Relationship"`
}

func readRelationships(idx map[string]*zip.File, p string) ([]xmlRelForRead, error) {
	data, err := readFileFromZip(idx, p)
	if err != nil {
		return nil, err
	}
	var rels xmlRelsForRead
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", p, err)
	}
	return rels.Relationships, nil
}

// readNotes returns the notes text of the slide at slidePath, one line per
// paragraph. Slides without a notes part yield "".
func readNotes(idx map[string]*zip.File, slidePath string) string {
	rels, err := readRelationships(idx, relsName(slidePath))
	if err != nil {
		return ""
	}
	for _, rel := range rels {
		if rel.Type != relNotesSlide {
			continue
		}
		data, err := readFileFromZip(idx, path.Join(path.Dir(slidePath), rel.Target))
		if err != nil {
			return ""
		}
		paras, err := collectParagraphs(data)
		if err != nil {
			return ""
		}
		return strings.Join(paras, "\n")
	}
	return ""
}

// collectText returns every <a:t> run text in document order.
func collectText(data []byte) ([]string, error) {
	var out []string
	err := walkText(data, func(text string, _ bool) {
		out = append(out, text)
	})
	return out, err
}

// collectParagraphs joins the runs of each <a:p> into one string.
func collectParagraphs(data []byte) ([]string, error) {
	var out []string
	var cur strings.Builder
	started := false
	err := walkText(data, func(text string, paraEnd bool) {
		if paraEnd {
			if started {
				out = append(out, cur.String())
			}
			cur.Reset()
			started = false
			return
		}
		cur.WriteString(text)
		started = true
	})
	return out, err
}

// walkText streams the DrawingML text of a part, calling fn for each run text
// and with paraEnd set when a paragraph closes.
func walkText(data []byte, fn func(text string, paraEnd bool)) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsDrawingML && t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Space == nsDrawingML {
				switch t.Name.Local {
				case "t":
					inText = false
				case "p":
					fn("", true)
				}
			}
		case xml.CharData:
			if inText {
				fn(string(t), false)
			}
		}
	}
}
