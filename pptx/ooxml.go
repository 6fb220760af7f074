package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Namespaces.
const (
	nsPackageRels  = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML    = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsChart        = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	nsDocRels      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Relationship types.
const (
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

	relOfficeDocument = relBase + "officeDocument"
	relExtProps       = relBase + "extended-properties"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relSlide          = relBase + "slide"
	relSlideMaster    = relBase + "slideMaster"
	relSlideLayout    = relBase + "slideLayout"
	relTheme          = relBase + "theme"
	relPresProps      = relBase + "presProps"
	relViewProps      = relBase + "viewProps"
	relTableStyles    = relBase + "tableStyles"
	relImage          = relBase + "image"
	relChart          = relBase + "chart"
	relNotesSlide     = relBase + "notesSlide"
	relNotesMaster    = relBase + "notesMaster"
)

// Content types.
const (
	ctBase = "application/vnd.openxmlformats-officedocument."

	ctPresentation = ctBase + "presentationml.presentation.main+xml"
	ctSlide        = ctBase + "presentationml.slide+xml"
	ctSlideMaster  = ctBase + "presentationml.slideMaster+xml"
	ctSlideLayout  = ctBase + "presentationml.slideLayout+xml"
	ctNotesSlide   = ctBase + "presentationml.notesSlide+xml"
	ctNotesMaster  = ctBase + "presentationml.notesMaster+xml"
	ctPresProps    = ctBase + "presentationml.presProps+xml"
	ctViewProps    = ctBase + "presentationml.viewProps+xml"
	ctTableStyles  = ctBase + "presentationml.tableStyles+xml"
	ctTheme        = ctBase + "theme+xml"
	ctChart        = ctBase + "drawingml.chart+xml"
	ctExtProps     = ctBase + "extended-properties+xml"
	ctCoreProps    = "application/vnd.openxmlformats-package.core-properties+xml"
	ctRels         = "application/vnd.openxmlformats-package.relationships+xml"
)

const xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// pmlRoot is the namespace declaration shared by PresentationML roots.
const pmlRoot = `xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsDocRels + `" xmlns:p="` + nsPresentation + `"`

// esc escapes text and attribute values.
func esc(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// xmlBuf accumulates a part body.
type xmlBuf struct {
	strings.Builder
}

func (b *xmlBuf) f(format string, args ...any) {
	fmt.Fprintf(b, format, args...)
}

func (b *xmlBuf) bytes() []byte { return []byte(b.String()) }

// rel is one relationship of a part.
type rel struct {
	id     string
	typ    string
	target string
}

// rels collects relationships, numbering them rId1, rId2, ... in order.
type rels []rel

func (r *rels) add(typ, target string) string {
	id := fmt.Sprintf("rId%d", len(*r)+1)
	*r = append(*r, rel{id: id, typ: typ, target: target})
	return id
}

func (r rels) xml() []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<Relationships xmlns="%s">`, nsPackageRels)
	for _, x := range r {
		b.f(`<Relationship Id="%s" Type="%s" Target="%s"/>`, x.id, x.typ, esc(x.target))
	}
	b.WriteString(`</Relationships>`)
	return b.bytes()
}

// relsName returns the relationships part name of part.
func relsName(part string) string {
	i := strings.LastIndex(part, "/")
	return part[:i+1] + "_rels/" + part[i+1:] + ".rels"
}

// solidFill renders <a:solidFill> with optional transparency.
func solidFill(b *xmlBuf, f Fill) {
	if f.opaque() {
		b.f(`<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, f.Color.Hex())
		return
	}
	b.f(`<a:solidFill><a:srgbClr val="%s"><a:alpha val="%d"/></a:srgbClr></a:solidFill>`, f.Color.Hex(), f.Opacity*1000)
}

func xmlBool(v bool) int {
	if v {
		return 1
	}
	return 0
}
