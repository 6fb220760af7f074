package pptx

import (
	"fmt"
	"strings"
)

func slideXML(s *Slide, sp *slidePlan) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<p:sld %s>`, pmlRoot)
	if s.Name != "" {
		b.f(`<p:cSld name="%s">`, esc(s.Name))
	} else {
		b.WriteString(`<p:cSld>`)
	}
	if s.Background != nil {
		b.WriteString(`<p:bg><p:bgPr>`)
		solidFill(&b, Fill{Color: *s.Background})
		b.WriteString(`<a:effectLst/></p:bgPr></p:bg>`)
	}
	b.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for i, sh := range s.Shapes {
		id := i + 2
		switch v := sh.(type) {
		case *TextBox:
			textBoxXML(&b, id, v)
		case *Picture:
			pictureXML(&b, id, v, sp.rid[sh])
		case *Rect:
			rectXML(&b, id, v)
		case *Chart:
			chartFrameXML(&b, id, v, sp.rid[sh])
		}
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.bytes()
}

// cNvPr renders the non-visual id, name and description of a shape.
func cNvPr(b *xmlBuf, id int, f *Frame, kind string) {
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", kind, id)
	}
	b.f(`<p:cNvPr id="%d" name="%s"`, id, esc(name))
	if f.Alt != "" {
		b.f(` descr="%s"`, esc(f.Alt))
	}
	b.WriteString(`/>`)
}

func xfrm(b *xmlBuf, f *Frame) {
	b.f(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, f.X, f.Y, f.W, f.H)
}

const rectGeom = `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`

func textBoxXML(b *xmlBuf, id int, t *TextBox) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	cNvPr(b, id, &t.Frame, "TextBox")
	b.WriteString(`<p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr>`)
	xfrm(b, &t.Frame)
	b.WriteString(rectGeom)
	if t.Fill != nil {
		solidFill(b, *t.Fill)
	} else {
		b.WriteString(`<a:noFill/>`)
	}
	b.WriteString(`</p:spPr><p:txBody><a:bodyPr wrap="square"`)
	if in := t.Insets; in != nil {
		b.f(` lIns="%d" tIns="%d" rIns="%d" bIns="%d"`, in.Left, in.Top, in.Right, in.Bottom)
	}
	if t.Anchor != "" {
		b.f(` anchor="%s"`, t.Anchor)
	}
	b.WriteString(`><a:noAutofit/></a:bodyPr><a:lstStyle/>`)
	if len(t.Paragraphs) == 0 {
		b.WriteString(`<a:p/>`)
	}
	for _, p := range t.Paragraphs {
		paragraphXML(b, p)
	}
	b.WriteString(`</p:txBody></p:sp>`)
}

func paragraphXML(b *xmlBuf, p *Paragraph) {
	b.WriteString(`<a:p><a:pPr`)
	if p.Align != "" {
		b.f(` algn="%s"`, p.Align)
	}
	if p.Margin != 0 {
		b.f(` marL="%d"`, p.Margin)
	}
	if p.Indent != 0 {
		b.f(` indent="%d"`, p.Indent)
	}
	b.WriteString(`>`)
	if p.LineSpacing > 0 {
		b.f(`<a:lnSpc><a:spcPct val="%d"/></a:lnSpc>`, p.LineSpacing*1000)
	}
	if p.Bullet != nil {
		b.f(`<a:buClr><a:srgbClr val="%s"/></a:buClr><a:buChar char="%s"/>`, p.Bullet.Color.Hex(), esc(p.Bullet.Char))
	} else {
		b.WriteString(`<a:buNone/>`)
	}
	b.WriteString(`</a:pPr>`)
	for i, line := range p.Lines {
		if i > 0 {
			b.WriteString(`<a:br/>`)
		}
		for _, r := range line {
			runXML(b, r)
		}
	}
	b.WriteString(`</a:p>`)
}

func runXML(b *xmlBuf, r Run) {
	f := r.Font
	b.f(`<a:r><a:rPr lang="en-US" altLang="zh-CN" sz="%d" b="%d" i="%d" dirty="0">`, int(f.Size*100), xmlBool(f.Bold), xmlBool(f.Italic))
	solidFill(b, Fill{Color: f.Color})
	if f.Family != "" {
		b.f(`<a:latin typeface="%s"/>`, esc(f.Family))
	}
	if f.EastAsian != "" {
		b.f(`<a:ea typeface="%s"/>`, esc(f.EastAsian))
	}
	b.f(`</a:rPr><a:t>%s</a:t></a:r>`, esc(r.Text))
}

func pictureXML(b *xmlBuf, id int, p *Picture, rid string) {
	b.WriteString(`<p:pic><p:nvPicPr>`)
	cNvPr(b, id, &p.Frame, "Picture")
	b.f(`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
	b.f(`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr>`, rid)
	xfrm(b, &p.Frame)
	b.WriteString(rectGeom + `</p:spPr></p:pic>`)
}

func rectXML(b *xmlBuf, id int, r *Rect) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	cNvPr(b, id, &r.Frame, "Rectangle")
	b.WriteString(`<p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr>`)
	xfrm(b, &r.Frame)
	b.WriteString(rectGeom)
	solidFill(b, r.Fill)
	b.WriteString(`<a:ln><a:noFill/></a:ln></p:spPr></p:sp>`)
}

func chartFrameXML(b *xmlBuf, id int, c *Chart, rid string) {
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr>`)
	cNvPr(b, id, &c.Frame, "Chart")
	b.WriteString(`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`)
	b.f(`<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`, c.X, c.Y, c.W, c.H)
	b.f(`<a:graphic><a:graphicData uri="%s"><c:chart xmlns:c="%s" r:id="%s"/></a:graphicData></a:graphic></p:graphicFrame>`,
		nsChart, nsChart, rid)
}

// notesXML renders speaker notes, one paragraph per line.
func notesXML(notes string) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<p:notes %s><p:cSld><p:spTree>`, pmlRoot)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>`)
	b.WriteString(`<p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, line := range strings.Split(notes, "\n") {
		b.f(`<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, esc(line))
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:notes>`)
	return b.bytes()
}

// --- Charts ---

const (
	catAxisID = 1
	valAxisID = 2
)

func chartXML(c *Chart) []byte {
	var b xmlBuf
	b.WriteString(xmlDecl)
	b.f(`<c:chartSpace xmlns:c="%s" xmlns:a="%s" xmlns:r="%s"><c:chart><c:autoTitleDeleted val="1"/><c:plotArea><c:layout/>`,
		nsChart, nsDrawingML, nsDocRels)

	gap := c.GapWidth
	if gap <= 0 {
		gap = 150
	}
	b.WriteString(`<c:barChart><c:barDir val="col"/><c:grouping val="clustered"/><c:varyColors val="0"/>`)
	for i, s := range c.Series {
		seriesXML(&b, i, s, c.Categories)
	}
	b.f(`<c:gapWidth val="%d"/><c:axId val="%d"/><c:axId val="%d"/></c:barChart>`, gap, catAxisID, valAxisID)

	b.f(`<c:catAx><c:axId val="%d"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="b"/>`, catAxisID)
	b.WriteString(`<c:numFmt formatCode="General" sourceLinked="0"/><c:tickLblPos val="nextTo"/>`)
	axisText(&b, c.Labels)
	b.f(`<c:crossAx val="%d"/><c:crosses val="autoZero"/></c:catAx>`, valAxisID)

	b.f(`<c:valAx><c:axId val="%d"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="l"/>`, valAxisID)
	if c.Gridlines != nil {
		b.f(`<c:majorGridlines><c:spPr><a:ln w="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:ln></c:spPr></c:majorGridlines>`,
			EMUPerPoint, c.Gridlines.Hex())
	}
	b.WriteString(`<c:numFmt formatCode="General" sourceLinked="0"/><c:tickLblPos val="nextTo"/>`)
	axisText(&b, c.Labels)
	b.f(`<c:crossAx val="%d"/><c:crosses val="autoZero"/></c:valAx></c:plotArea>`, catAxisID)

	if c.Legend {
		b.WriteString(`<c:legend><c:legendPos val="b"/><c:overlay val="0"/></c:legend>`)
	}
	b.WriteString(`<c:plotVisOnly val="1"/><c:dispBlanksAs val="gap"/></c:chart></c:chartSpace>`)
	return b.bytes()
}

// seriesXML renders series i. Its cached values sit in spreadsheet column
// i+1 (B, C, ...) below a header row; categories are column A.
func seriesXML(b *xmlBuf, i int, s Series, cats []string) {
	col := columnName(i + 1)
	last := len(cats) + 1
	b.f(`<c:ser><c:idx val="%d"/><c:order val="%d"/>`, i, i)
	b.f(`<c:tx><c:strRef><c:f>Sheet1!$%s$1</c:f><c:strCache><c:ptCount val="1"/><c:pt idx="0"><c:v>%s</c:v></c:pt></c:strCache></c:strRef></c:tx>`,
		col, esc(s.Name))
	b.WriteString(`<c:spPr>`)
	solidFill(b, Fill{Color: s.Color})
	b.WriteString(`</c:spPr>`)

	b.f(`<c:cat><c:strRef><c:f>Sheet1!$A$2:$A$%d</c:f><c:strCache><c:ptCount val="%d"/>`, last, len(cats))
	for j, cat := range cats {
		b.f(`<c:pt idx="%d"><c:v>%s</c:v></c:pt>`, j, esc(cat))
	}
	b.WriteString(`</c:strCache></c:strRef></c:cat>`)

	b.f(`<c:val><c:numRef><c:f>Sheet1!$%s$2:$%s$%d</c:f><c:numCache><c:formatCode>General</c:formatCode><c:ptCount val="%d"/>`,
		col, col, last, len(cats))
	for j := range cats {
		b.f(`<c:pt idx="%d"><c:v>%g</c:v></c:pt>`, j, s.Value(j))
	}
	b.WriteString(`</c:numCache></c:numRef></c:val></c:ser>`)
}

func axisText(b *xmlBuf, f Font) {
	if f.Size <= 0 {
		return
	}
	b.f(`<c:txPr><a:bodyPr/><a:lstStyle/><a:p><a:pPr><a:defRPr sz="%d">`, int(f.Size*100))
	solidFill(b, Fill{Color: f.Color})
	if f.Family != "" {
		b.f(`<a:latin typeface="%s"/>`, esc(f.Family))
	}
	if f.EastAsian != "" {
		b.f(`<a:ea typeface="%s"/>`, esc(f.EastAsian))
	}
	b.WriteString(`</a:defRPr></a:pPr><a:endParaRPr lang="en-US"/></a:p></c:txPr>`)
}

// columnName returns the spreadsheet column for a 0-based index.
func columnName(n int) string {
	var out []byte
	for n >= 0 {
		out = append([]byte{byte('A' + n%26)}, out...)
		n = n/26 - 1
	}
	return string(out)
}
