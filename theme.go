package autodeck

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Role names a palette slot.
type Role string

const (
	RolePrimary    Role = "primary"
	RoleAccent     Role = "accent"
	RoleText       Role = "text"
	RoleBackground Role = "background"
	RoleQuote      Role = "quote"
	RoleChart      Role = "chart"
	RoleMuted      Role = "muted"
)

// Theme is a resolved palette (6-digit upper-case hex, no '#') and font set.
type Theme struct {
	Name          string
	Palette       map[Role]string
	FontFamily    string
	EastAsianFont string
}

// Color returns the hex colour of a role, or the text colour for unknown roles.
func (t Theme) Color(r Role) string {
	if c, ok := t.Palette[r]; ok {
		return c
	}
	return t.Palette[RoleText]
}

// ThemeConfig is a custom theme as written in YAML. Colours are "#RRGGBB";
// only primary is required.
type ThemeConfig struct {
	Primary       string `yaml:"primary"`
	Accent        string `yaml:"accent"`
	Text          string `yaml:"text"`
	Background    string `yaml:"background"`
	Quote         string `yaml:"quote"`
	Chart         string `yaml:"chart"`
	Muted         string `yaml:"muted"`
	FontFamily    string `yaml:"font_family"`
	EastAsianFont string `yaml:"east_asian_font"`
}

const (
	defaultFont     = "Microsoft YaHei"
	defaultTextHex  = "212121"
	defaultBgHex    = "FAFAFA"
	defaultMutedHex = "757575"
)

func builtin(name, primary, accent, quote, chart string) Theme {
	return Theme{
		Name: name,
		Palette: map[Role]string{
			RolePrimary:    primary,
			RoleAccent:     accent,
			RoleText:       defaultTextHex,
			RoleBackground: defaultBgHex,
			RoleQuote:      quote,
			RoleChart:      chart,
			RoleMuted:      defaultMutedHex,
		},
		FontFamily:    defaultFont,
		EastAsianFont: defaultFont,
	}
}

var builtinThemes = map[string]Theme{
	"military_solemn": builtin("military_solemn", "1A237E", "D50000", "009688", "3F51B5"),
	"tech_blue":       builtin("tech_blue", "0077C8", "FF9800", "009688", "0077C8"),
	"nature_green":    builtin("nature_green", "2E7D32", "FFC107", "00796B", "2E7D32"),
	"business_gray":   builtin("business_gray", "424242", "009688", "00796B", "607D8B"),
}

// ThemeResolver maps theme identifiers to themes. It is read-only after
// construction.
type ThemeResolver struct {
	themes map[string]Theme
}

// NewThemeResolver merges custom themes over the built-ins. A custom theme
// may shadow a built-in of the same name.
func NewThemeResolver(custom map[string]ThemeConfig) (*ThemeResolver, error) {
	r := &ThemeResolver{themes: make(map[string]Theme, len(builtinThemes)+len(custom))}
	for k, v := range builtinThemes {
		r.themes[k] = v
	}
	for name, tc := range custom {
		t, err := tc.theme(name)
		if err != nil {
			return nil, err
		}
		r.themes[name] = t
	}
	return r, nil
}

// Resolve returns the named theme or an *UnknownThemeError. There is no
// silent default.
func (r *ThemeResolver) Resolve(name string) (Theme, error) {
	if t, ok := r.themes[name]; ok {
		return t, nil
	}
	return Theme{}, &UnknownThemeError{Name: name, Known: r.Names()}
}

// Names lists the known theme identifiers, sorted.
func (r *ThemeResolver) Names() []string {
	names := make([]string, 0, len(r.themes))
	for k := range r.themes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (tc ThemeConfig) theme(name string) (Theme, error) {
	if tc.Primary == "" {
		return Theme{}, fmt.Errorf("theme %s: primary colour is required", name)
	}
	primary, err := parseHex(tc.Primary)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s: primary: %w", name, err)
	}

	h, s, l := primary.Hsl()
	derived := map[Role]colorful.Color{
		RoleAccent:     colorful.Hsl(math.Mod(h+180, 360), s, l),
		RoleMuted:      primary.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.45).Clamped(),
		RoleQuote:      primary.BlendLab(colorful.Color{}, 0.25).Clamped(),
		RoleChart:      primary,
		RoleText:       mustHex(defaultTextHex),
		RoleBackground: mustHex(defaultBgHex),
	}
	given := map[Role]string{
		RoleAccent:     tc.Accent,
		RoleText:       tc.Text,
		RoleBackground: tc.Background,
		RoleQuote:      tc.Quote,
		RoleChart:      tc.Chart,
		RoleMuted:      tc.Muted,
	}

	t := Theme{
		Name:          name,
		Palette:       map[Role]string{RolePrimary: hexOf(primary)},
		FontFamily:    orDefault(tc.FontFamily, defaultFont),
		EastAsianFont: orDefault(tc.EastAsianFont, orDefault(tc.FontFamily, defaultFont)),
	}
	for role, fallback := range derived {
		c := fallback
		if v := given[role]; v != "" {
			if c, err = parseHex(v); err != nil {
				return Theme{}, fmt.Errorf("theme %s: %s: %w", name, role, err)
			}
		}
		t.Palette[role] = hexOf(c)
	}
	return t, nil
}

func parseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return colorful.Hex(s)
}

func mustHex(s string) colorful.Color {
	c, _ := parseHex(s)
	return c
}

func hexOf(c colorful.Color) string {
	return strings.ToUpper(strings.TrimPrefix(c.Hex(), "#"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Tint blends a hex colour toward white by frac (0..1).
func Tint(hex string, frac float64) string {
	c, err := parseHex(hex)
	if err != nil {
		return hex
	}
	return hexOf(c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, frac).Clamped())
}
