package pptx

import (
	"fmt"
	"strings"
)

// part is one entry of the zip package.
type part struct {
	name string
	// ctype is the override content type; media parts use extension defaults.
	ctype string
	body  []byte
}

// slidePlan is what a slide part refers to.
type slidePlan struct {
	num  int
	rels rels
	// rid maps pictures and charts to their relationship id.
	rid   map[Shape]string
	notes string // notes part name, "" without notes
}

// manifest names every part before anything is rendered, so content types,
// relationships and shape references agree.
type manifest struct {
	slides []slidePlan
	media  []mediaRef
	charts []*Chart
	notes  bool
}

type mediaRef struct {
	name string
	ext  string
	mime string
	data []byte
}

var mediaExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
}

func plan(p *Presentation) (*manifest, error) {
	m := &manifest{notes: p.hasNotes()}
	for i, s := range p.slides {
		sp := slidePlan{num: i + 1, rid: map[Shape]string{}}
		sp.rels.add(relSlideLayout, "../slideLayouts/slideLayout1.xml")
		for j, sh := range s.Shapes {
			switch v := sh.(type) {
			case *Picture:
				ext, ok := mediaExt[v.Mime]
				if !ok {
					return nil, fmt.Errorf("slide %d shape %d: unsupported image type %q", i+1, j+1, v.Mime)
				}
				ref := mediaRef{name: fmt.Sprintf("image%d.%s", len(m.media)+1, ext), ext: ext, mime: v.Mime, data: v.Data}
				m.media = append(m.media, ref)
				sp.rid[sh] = sp.rels.add(relImage, "../media/"+ref.name)
			case *Chart:
				if len(v.Categories) == 0 || len(v.Series) == 0 {
					return nil, fmt.Errorf("slide %d shape %d: chart needs categories and series", i+1, j+1)
				}
				m.charts = append(m.charts, v)
				sp.rid[sh] = sp.rels.add(relChart, fmt.Sprintf("../charts/chart%d.xml", len(m.charts)))
			}
		}
		if s.Notes != "" {
			sp.notes = fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", sp.num)
			sp.rels.add(relNotesSlide, fmt.Sprintf("../notesSlides/notesSlide%d.xml", sp.num))
		}
		m.slides = append(m.slides, sp)
	}
	return m, nil
}

// parts renders every part of the package, content types first.
func (w *Writer) parts(m *manifest) []part {
	p := w.p
	var out []part
	add := func(name, ctype string, body []byte) {
		out = append(out, part{name: name, ctype: ctype, body: body})
	}

	var root rels
	root.add(relOfficeDocument, "ppt/presentation.xml")
	root.add(relCoreProps, "docProps/core.xml")
	root.add(relExtProps, "docProps/app.xml")
	add("_rels/.rels", "", root.xml())
	add("docProps/core.xml", ctCoreProps, coreXML(p.Props))
	add("docProps/app.xml", ctExtProps, appXML(len(p.slides)))

	var pres rels
	pres.add(relSlideMaster, "slideMasters/slideMaster1.xml")
	slideRIDs := make([]string, len(p.slides))
	for i := range p.slides {
		slideRIDs[i] = pres.add(relSlide, fmt.Sprintf("slides/slide%d.xml", i+1))
	}
	pres.add(relPresProps, "presProps.xml")
	pres.add(relViewProps, "viewProps.xml")
	pres.add(relTableStyles, "tableStyles.xml")
	pres.add(relTheme, "theme/theme1.xml")
	notesMasterRID := ""
	if m.notes {
		notesMasterRID = pres.add(relNotesMaster, "notesMasters/notesMaster1.xml")
	}
	add("ppt/presentation.xml", ctPresentation, presentationXML(p, slideRIDs, notesMasterRID))
	add(relsName("ppt/presentation.xml"), "", pres.xml())
	add("ppt/presProps.xml", ctPresProps, []byte(xmlDecl+`<p:presentationPr `+pmlRoot+`/>`))
	add("ppt/viewProps.xml", ctViewProps, []byte(xmlDecl+`<p:viewPr `+pmlRoot+`><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`))
	add("ppt/tableStyles.xml", ctTableStyles, []byte(xmlDecl+`<a:tblStyleLst xmlns:a="`+nsDrawingML+`" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`))

	theme := themeXML(p.Scheme)
	var master, layout rels
	master.add(relSlideLayout, "../slideLayouts/slideLayout1.xml")
	master.add(relTheme, "../theme/theme1.xml")
	layout.add(relSlideMaster, "../slideMasters/slideMaster1.xml")
	add("ppt/slideMasters/slideMaster1.xml", ctSlideMaster, masterXML())
	add(relsName("ppt/slideMasters/slideMaster1.xml"), "", master.xml())
	add("ppt/slideLayouts/slideLayout1.xml", ctSlideLayout, layoutXML())
	add(relsName("ppt/slideLayouts/slideLayout1.xml"), "", layout.xml())
	add("ppt/theme/theme1.xml", ctTheme, theme)
	if m.notes {
		var nm rels
		nm.add(relTheme, "../theme/theme2.xml")
		add("ppt/notesMasters/notesMaster1.xml", ctNotesMaster, notesMasterXML())
		add(relsName("ppt/notesMasters/notesMaster1.xml"), "", nm.xml())
		add("ppt/theme/theme2.xml", ctTheme, theme)
	}

	for i, s := range p.slides {
		sp := &m.slides[i]
		name := fmt.Sprintf("ppt/slides/slide%d.xml", sp.num)
		add(name, ctSlide, slideXML(s, sp))
		add(relsName(name), "", sp.rels.xml())
		if sp.notes != "" {
			var nr rels
			nr.add(relNotesMaster, "../notesMasters/notesMaster1.xml")
			nr.add(relSlide, fmt.Sprintf("../slides/slide%d.xml", sp.num))
			add(sp.notes, ctNotesSlide, notesXML(s.Notes))
			add(relsName(sp.notes), "", nr.xml())
		}
	}
	for i, c := range m.charts {
		add(fmt.Sprintf("ppt/charts/chart%d.xml", i+1), ctChart, chartXML(c))
	}
	for _, ref := range m.media {
		add("ppt/media/"+ref.name, "", ref.data)
	}

	return append([]part{{name: "[Content_Types].xml", body: contentTypesXML(out, m)}}, out...)
}

func contentTypesXML(parts []part, m *manifest) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<Types xmlns="%s">`, nsContentTypes)
	b.f(`<Default Extension="rels" ContentType="%s"/>`, ctRels)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := map[string]bool{}
	for _, ref := range m.media {
		if !seen[ref.ext] {
			seen[ref.ext] = true
			b.f(`<Default Extension="%s" ContentType="%s"/>`, ref.ext, ref.mime)
		}
	}
	for _, pt := range parts {
		if pt.ctype != "" {
			b.f(`<Override PartName="/%s" ContentType="%s"/>`, pt.name, pt.ctype)
		}
	}
	b.WriteString(`</Types>`)
	return b.bytes()
}

func coreXML(props Properties) []byte {
	created := props.Created.UTC().Format("2006-01-02T15:04:05Z")
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.f(`<dc:title>%s</dc:title>`, esc(props.Title))
	b.f(`<dc:subject>%s</dc:subject>`, esc(props.Subject))
	b.f(`<dc:creator>%s</dc:creator>`, esc(props.Creator))
	b.f(`<cp:keywords>%s</cp:keywords>`, esc(props.Keywords))
	b.f(`<cp:lastModifiedBy>%s</cp:lastModifiedBy>`, esc(props.Creator))
	b.WriteString(`<cp:revision>1</cp:revision>`)
	b.f(`<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, created)
	b.f(`<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, created)
	b.WriteString(`</cp:coreProperties>`)
	return b.bytes()
}

func appXML(slides int) []byte {
	return []byte(fmt.Sprintf(xmlDecl+`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`+
		`<Application>autodeck</Application><Slides>%d</Slides></Properties>`, slides))
}

func presentationXML(p *Presentation, slideRIDs []string, notesMasterRID string) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<p:presentation %s saveSubsetFonts="1">`, pmlRoot)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if notesMasterRID != "" {
		b.f(`<p:notesMasterIdLst><p:notesMasterId r:id="%s"/></p:notesMasterIdLst>`, notesMasterRID)
	}
	b.WriteString(`<p:sldIdLst>`)
	for i, rid := range slideRIDs {
		b.f(`<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
	}
	b.WriteString(`</p:sldIdLst>`)
	b.f(`<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, p.width, p.height)
	b.WriteString(`<p:defaultTextStyle><a:defPPr><a:defRPr lang="en-US"/></a:defPPr></p:defaultTextStyle></p:presentation>`)
	return b.bytes()
}

// emptyTree is the shape tree of the master, layout and notes master.
const emptyTree = `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr></p:spTree>`

const clrMap = `<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`

const masterBg = `<p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>`

func masterXML() []byte {
	return []byte(xmlDecl + `<p:sldMaster ` + pmlRoot + `><p:cSld>` + masterBg + emptyTree + `</p:cSld>` + clrMap +
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`)
}

func layoutXML() []byte {
	return []byte(xmlDecl + `<p:sldLayout ` + pmlRoot + ` type="blank" preserve="1"><p:cSld name="Blank">` + emptyTree +
		`</p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
}

func notesMasterXML() []byte {
	return []byte(xmlDecl + `<p:notesMaster ` + pmlRoot + `><p:cSld>` + masterBg + emptyTree + `</p:cSld>` + clrMap + `</p:notesMaster>`)
}

func themeXML(s Scheme) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<a:theme xmlns:a="%s" name="%s"><a:themeElements>`, nsDrawingML, esc(s.Name))
	b.f(`<a:clrScheme name="%s">`, esc(s.Name))
	for _, c := range []struct {
		tag string
		col Color
	}{{"dk1", s.Dark}, {"lt1", s.Light}, {"dk2", s.Dark2}, {"lt2", s.Light2}} {
		b.f(`<a:%s><a:srgbClr val="%s"/></a:%s>`, c.tag, c.col.Hex(), c.tag)
	}
	for i, c := range s.Accents {
		b.f(`<a:accent%d><a:srgbClr val="%s"/></a:accent%d>`, i+1, c.Hex(), i+1)
	}
	b.f(`<a:hlink><a:srgbClr val="%s"/></a:hlink><a:folHlink><a:srgbClr val="%s"/></a:folHlink></a:clrScheme>`,
		s.Hyperlink.Hex(), s.Hyperlink.Hex())
	b.f(`<a:fontScheme name="%s">`, esc(s.Name))
	for _, tag := range []string{"majorFont", "minorFont"} {
		b.f(`<a:%s><a:latin typeface="%s"/><a:ea typeface="%s"/><a:cs typeface=""/></a:%s>`, tag, esc(s.Font), esc(s.EastAsian), tag)
	}
	b.WriteString(`</a:fontScheme>`)
	b.WriteString(fmtScheme)
	b.WriteString(`</a:themeElements></a:theme>`)
	return b.bytes()
}

// fmtScheme is the minimal format scheme PowerPoint requires: three entries
// per style list.
var fmtScheme = func() string {
	fill := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	var b strings.Builder
	b.WriteString(`<a:fmtScheme name="autodeck"><a:fillStyleLst>` + strings.Repeat(fill, 3) + `</a:fillStyleLst><a:lnStyleLst>`)
	for _, w := range []int{6350, 12700, 19050} {
		fmt.Fprintf(&b, `<a:ln w="%d">%s</a:ln>`, w, fill)
	}
	b.WriteString(`</a:lnStyleLst><a:effectStyleLst>` + strings.Repeat(`<a:effectStyle><a:effectLst/></a:effectStyle>`, 3) +
		`</a:effectStyleLst><a:bgFillStyleLst>` + strings.Repeat(fill, 3) + `</a:bgFillStyleLst></a:fmtScheme>`)
	return b.String()
}()
