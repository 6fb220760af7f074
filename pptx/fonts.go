package pptx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FallbackFontName is the embedded Go Regular face, always registered.
const FallbackFontName = "go regular"

// faceKey identifies a sized face.
type faceKey struct {
	name    string
	size    float64
	bold    bool
	italic  bool
	hinting font.Hinting
}

// FontCache finds TrueType/OpenType fonts by family name and caches sized
// faces. System font directories are scanned lazily on first lookup.
// It is safe for concurrent use.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string
	fonts   map[string]*opentype.Font // lowercase name -> parsed font
	faces   map[faceKey]font.Face
	scanned bool
}

// NewFontCache creates a FontCache over the OS font directories plus extraDirs.
func NewFontCache(extraDirs ...string) *FontCache {
	fc := &FontCache{
		dirs:  append(systemFontDirs(), extraDirs...),
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		fc.fonts[FallbackFontName] = f
	}
	return fc
}

// NewEmbeddedFontCache creates a FontCache that never touches the filesystem:
// only the embedded fallback and explicitly loaded fonts are known.
func NewEmbeddedFontCache() *FontCache {
	fc := NewFontCache()
	fc.dirs = nil
	fc.scanned = true
	return fc
}

// Face returns a render face (full hinting) at sizePt and 72 DPI, or nil if
// no font matches name.
func (fc *FontCache) Face(name string, sizePt float64, bold, italic bool) font.Face {
	return fc.face(name, sizePt, bold, italic, font.HintingFull)
}

// MeasureFace returns an unhinted face for width measurement. Unhinted
// advances track PowerPoint's own line breaking more closely.
func (fc *FontCache) MeasureFace(name string, sizePt float64, bold, italic bool) font.Face {
	return fc.face(name, sizePt, bold, italic, font.HintingNone)
}

// FaceOrFallback is Face with the embedded fallback when name is unknown.
func (fc *FontCache) FaceOrFallback(name string, sizePt float64, bold, italic bool) font.Face {
	if f := fc.Face(name, sizePt, bold, italic); f != nil {
		return f
	}
	return fc.Face(FallbackFontName, sizePt, false, false)
}

func (fc *FontCache) face(name string, sizePt float64, bold, italic bool, h font.Hinting) font.Face {
	fc.ensureScanned()
	key := faceKey{name: strings.ToLower(name), size: sizePt, bold: bold, italic: italic, hinting: h}

	fc.mu.RLock()
	if face, ok := fc.faces[key]; ok {
		fc.mu.RUnlock()
		return face
	}
	f := fc.lookup(key.name, bold, italic)
	fc.mu.RUnlock()
	if f == nil {
		return nil
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: h})
	if err != nil {
		return nil
	}
	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face
}

// styleSuffixes are the file and family name suffixes tried per style, in
// order. Windows ships "msyhbd", "arialbi" and similar.
var styleSuffixes = map[[2]bool][]string{
	{true, true}:  {" bold italic", "bi", " bolditalic", "z"},
	{true, false}: {" bold", "bd", "b"},
	{false, true}: {" italic", "i", " it"},
}

// lookup resolves a lowercase name to a font. Callers hold fc.mu.
func (fc *FontCache) lookup(lower string, bold, italic bool) *opentype.Font {
	if f := fc.lookupStyled(lower, bold, italic); f != nil {
		return f
	}
	if alias, ok := eastAsianFontAliases[lower]; ok {
		return fc.lookupStyled(alias, bold, italic)
	}
	return nil
}

func (fc *FontCache) lookupStyled(lower string, bold, italic bool) *opentype.Font {
	if bold || italic {
		for _, suffix := range styleSuffixes[[2]bool{bold, italic}] {
			if f, ok := fc.fonts[lower+suffix]; ok {
				return f
			}
		}
	}
	return fc.fonts[lower]
}

// LoadFontData registers a TrueType/OpenType font from raw bytes under name
// and under its internal family names.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	fc.mu.Lock()
	fc.fonts[strings.ToLower(name)] = f
	fc.registerFamily(f)
	fc.mu.Unlock()
	return nil
}

// LoadFont reads a font file and registers it like LoadFontData.
func (fc *FontCache) LoadFont(name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxFontFileSize {
		return fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return fc.LoadFontData(name, data)
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true
	for _, dir := range fc.dirs {
		fc.scanDir(dir, 0)
	}
}

// maxFontScanDepth limits recursive directory traversal when scanning for fonts.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func (fc *FontCache) scanDir(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDir(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		ext := filepath.Ext(lower)
		if ext != ".ttf" && ext != ".otf" && ext != ".ttc" && ext != ".otc" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		base := strings.TrimSuffix(lower, ext)
		if ext == ".ttc" || ext == ".otc" {
			fc.registerCollection(data, base)
			continue
		}
		if f, err := opentype.Parse(data); err == nil {
			fc.fonts[base] = f
			fc.registerFamily(f)
		}
	}
}

// registerCollection registers every font of a TTC/OTC by family name, and
// the first one by file name too.
func (fc *FontCache) registerCollection(data []byte, base string) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		if i == 0 {
			fc.fonts[base] = f
		}
		fc.registerFamily(f)
	}
}

// registerFamily indexes f by its family and full names.
func (fc *FontCache) registerFamily(f *opentype.Font) {
	for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDFull} {
		if n, err := f.Name(nil, id); err == nil && n != "" {
			fc.fonts[strings.ToLower(n)] = f
		}
	}
}

// eastAsianFontAliases maps Chinese font names, as decks often spell them,
// to the English family names fonts register under.
var eastAsianFontAliases = map[string]string{
	"宋体":      "simsun",
	"黑体":      "simhei",
	"微软雅黑":    "microsoft yahei",
	"微软雅黑 ui": "microsoft yahei ui",
	"楷体":      "kaiti",
	"仿宋":      "fangsong",
	"新宋体":     "nsimsun",
	"等线":      "dengxian",
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
