package autodeck

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSubject is used when nothing in the slide maps to an English phrase.
const DefaultSubject = "technical illustration, professional diagram"

const promptTemplate = "Professional technical illustration showing %s. " +
	"Style: clean modern infographic, flat design, soft colors. " +
	"NO text, NO watermarks, NO human faces."

// maxSubjectTerms bounds how many phrases go into a derived subject.
const maxSubjectTerms = 3

// keywordPhrases maps domain terms to English subject phrases, in match
// priority order.
var keywordPhrases = []struct{ term, phrase string }{
	{"电磁", "electromagnetic waves, radar systems"},
	{"雷达", "military radar system, antenna array"},
	{"脉冲", "electromagnetic pulse, EMP effect"},
	{"攻击", "cyber attack visualization, security threat"},
	{"防护", "protective shield, defense system"},
	{"辐射", "radiation protection, electromagnetic shielding"},
	{"屏蔽", "metal shielding box, Faraday cage"},
	{"干扰", "electronic jamming, signal interference"},
	{"通信", "communication systems, satellite links"},
	{"导弹", "missile defense system, military technology"},
	{"战场", "modern battlefield, military operations"},
	{"武器", "advanced weapons system, military equipment"},
	{"传导", "electrical conduction, circuit protection"},
	{"耦合", "electromagnetic coupling, signal transmission"},
	{"滤波", "electronic filter, signal processing"},
	{"芯片", "microchip, semiconductor technology"},
	{"设备", "electronic equipment, technical devices"},
	{"系统", "integrated system, technical architecture"},
	{"标准", "technical standards, certification documents"},
	{"试验", "laboratory testing, scientific experiment"},
	{"验证", "verification process, quality control"},
	{"技术", "advanced technology, innovation"},
	{"科技", "high-tech, futuristic design"},
	{"数据", "data visualization, digital information"},
	{"网络", "network topology, cyber infrastructure"},
	{"安全", "security systems, protection measures"},
}

// PromptSource is the slide content an image prompt is derived from.
type PromptSource struct {
	Slide   int
	Title   string
	Bullets []string
	Prompt  string
	Desc    string
}

// PromptSourceOf extracts the prompt inputs of a slide.
func PromptSourceOf(index int, s SlideSpec) PromptSource {
	return PromptSource{
		Slide:   index,
		Title:   s.Title,
		Bullets: s.Bullets,
		Prompt:  s.ImagePrompt,
		Desc:    s.ImageDesc,
	}
}

// DerivePrompt returns the explicit prompt verbatim, or fills the English
// template from the title and the heads of the first bullets.
func DerivePrompt(src PromptSource) string {
	if p := strings.TrimSpace(src.Prompt); p != "" {
		return p
	}
	return strings.Replace(promptTemplate, "%s", deriveSubject(src), 1)
}

func deriveSubject(src PromptSource) string {
	heads := bulletHeads(src.Bullets)
	all := src.Title + " " + strings.Join(heads, " ")

	var terms []string
	for _, k := range keywordPhrases {
		if strings.Contains(all, k.term) {
			terms = append(terms, k.phrase)
		}
	}
	if len(terms) == 0 {
		for _, s := range append([]string{src.Title}, heads...) {
			if s = strings.TrimSpace(s); s != "" && isASCII(s) {
				terms = append(terms, s)
			}
		}
	}
	if len(terms) == 0 {
		return DefaultSubject
	}
	if len(terms) > maxSubjectTerms {
		terms = terms[:maxSubjectTerms]
	}
	return strings.Join(terms, ", ")
}

// bulletHeads returns, for the first three bullets, the text before a colon
// or the first ten runes.
func bulletHeads(bullets []string) []string {
	var out []string
	for i, b := range bullets {
		if i == 3 {
			break
		}
		if head, _, ok := splitHead(b); ok {
			out = append(out, head)
			continue
		}
		out = append(out, firstRunes(strings.TrimSpace(b), 10))
	}
	return out
}

// splitHead splits "head：rest" or "head: rest" at the first colon.
func splitHead(s string) (head, rest string, ok bool) {
	for _, sep := range []string{"：", ":"} {
		if h, r, found := strings.Cut(s, sep); found && strings.TrimSpace(h) != "" {
			return strings.TrimSpace(h), r, true
		}
	}
	return "", s, false
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
