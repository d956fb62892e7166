package textcard

import (
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const defaultFontFile = "DejaVuSans.ttf"

var systemFontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/dejavu",
	"/usr/share/fonts/TTF",
	"/usr/share/fonts/truetype",
	"/usr/local/share/fonts",
	"/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
	`C:\Windows\Fonts`,
}

// Font is a resolved face. Path is empty for the built-in font.
type Font struct {
	Face font.Face
	Path string
}

func (f *Font) Close() error {
	if f == nil || f.Face == nil {
		return nil
	}
	return f.Face.Close()
}

// ResolveFont tries the explicit path, then the default system font, then
// the built-in Go Regular font. Failures fall through to the next option.
func ResolveFont(explicit string, size int) *Font {
	candidates := make([]string, 0, len(systemFontDirs)+1)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	for _, dir := range systemFontDirs {
		candidates = append(candidates, filepath.Join(dir, defaultFontFile))
	}
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if face, err := newFace(b, size); err == nil {
			return &Font{Face: face, Path: p}
		}
	}

	face, err := newFace(goregular.TTF, size)
	if err != nil {
		// goregular is compiled in; this only fails on a broken build.
		panic(err)
	}
	return &Font{Face: face}
}

func newFace(b []byte, size int) (font.Face, error) {
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
