package autodeck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// EndingTitle is the title of the ending slide appended to outlines.
const EndingTitle = "Thank you"

var (
	imageLine = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]*)\)$`)
	typeTag   = regexp.MustCompile(`\s*\{(cover|section|content_image|chart|ending)\}$`)
)

// ParseOutline reads a markdown outline:
//
//	# Title          cover; the next plain line is the subtitle, the one after the slogan
//	## Title         section; the next plain line is the subtitle
//	### Title        content_image
//	- item / * item  bullet
//	> text           quote
//	![desc](prompt)  image description and prompt
//	---              closes the current slide
//
// A heading may end in a {type} tag, e.g. "## Q&A {ending}". Unless the
// outline has an ending slide, one titled EndingTitle listing the section
// titles is appended. metadata.theme is left empty for the caller.
func ParseOutline(r io.Reader) (*Deck, error) {
	return parseOutline(r, "")
}

// LoadOutline reads and parses an outline file.
func LoadOutline(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open outline: %w", err)
	}
	defer f.Close()
	return parseOutline(f, path)
}

type outlineParser struct {
	source   string
	deck     Deck
	cur      *SlideSpec
	plain    int // plain lines seen on the current slide
	sections []string
	ending   bool
}

func parseOutline(r io.Reader, source string) (*Deck, error) {
	p := &outlineParser{source: source}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		if err := p.line(strings.TrimSpace(sc.Text())); err != nil {
			return nil, &DeckError{Source: source, Err: fmt.Errorf("line %d: %w", n, err)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &DeckError{Source: source, Err: err}
	}
	p.flush()
	if len(p.deck.Slides) == 0 {
		return nil, ErrNoSlides
	}
	if !p.ending {
		p.deck.Slides = append(p.deck.Slides, SlideSpec{
			Type:    SlideEnding,
			Title:   EndingTitle,
			Bullets: p.sections,
		})
	}
	return &p.deck, nil
}

func (p *outlineParser) line(s string) error {
	switch {
	case s == "":
		return nil
	case s == "---" || s == "***":
		p.flush()
		return nil
	case strings.HasPrefix(s, "#"):
		return p.heading(s)
	}

	if p.cur == nil {
		return fmt.Errorf("%q appears before the first heading", s)
	}
	switch {
	case strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* "):
		p.cur.Bullets = append(p.cur.Bullets, strings.TrimSpace(s[2:]))
	case strings.HasPrefix(s, ">"):
		q := strings.TrimSpace(strings.TrimPrefix(s, ">"))
		if p.cur.Quote != "" {
			q = p.cur.Quote + " " + q
		}
		p.cur.Quote = q
	case imageLine.MatchString(s):
		m := imageLine.FindStringSubmatch(s)
		p.cur.ImageDesc = strings.TrimSpace(m[1])
		p.cur.ImagePrompt = strings.TrimSpace(m[2])
	default:
		p.plainLine(s)
	}
	return nil
}

func (p *outlineParser) heading(s string) error {
	level := len(s) - len(strings.TrimLeft(s, "#"))
	title := strings.TrimSpace(s[level:])
	var t SlideType
	switch level {
	case 1:
		t = SlideCover
	case 2:
		t = SlideSection
	case 3:
		t = SlideContentImage
	default:
		return fmt.Errorf("heading level %d not supported", level)
	}
	if m := typeTag.FindStringSubmatch(title); m != nil {
		t = SlideType(m[1])
		title = strings.TrimSpace(strings.TrimSuffix(title, m[0]))
	}
	if title == "" {
		return fmt.Errorf("empty %s title", t)
	}

	p.flush()
	p.cur = &SlideSpec{Type: t, Title: title}
	switch t {
	case SlideCover:
		if p.deck.Metadata.Title == "" {
			p.deck.Metadata.Title = title
		}
	case SlideSection:
		p.sections = append(p.sections, title)
	case SlideEnding:
		p.ending = true
	}
	return nil
}

// plainLine places an unmarked line: subtitle then slogan on a cover,
// subtitle on a section, a bullet elsewhere.
func (p *outlineParser) plainLine(s string) {
	defer func() { p.plain++ }()
	switch p.cur.Type {
	case SlideCover:
		switch p.plain {
		case 0:
			p.cur.Subtitle = s
			return
		case 1:
			p.cur.Slogan = s
			return
		}
	case SlideSection:
		if p.plain == 0 {
			p.cur.Subtitle = s
			return
		}
	}
	p.cur.Bullets = append(p.cur.Bullets, s)
}

func (p *outlineParser) flush() {
	if p.cur != nil {
		p.deck.Slides = append(p.deck.Slides, *p.cur)
	}
	p.cur = nil
	p.plain = 0
}
