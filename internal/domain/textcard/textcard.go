// Package textcard holds what both card renderers share: the card spec,
// font resolution, color parsing and line layout.
package textcard

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/font"

	"github.com/forPelevin/img2vid/internal/types"
)

// LineSpacing is the gap between lines of a manually laid out card.
const LineSpacing = 8

type Spec struct {
	Text      string
	Size      types.Size
	FontPath  string
	FontSize  int
	TextColor string
	BgColor   string
}

// Lines splits text on line breaks. Text without breaks yields itself.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}

// Wrap breaks text into lines no wider than maxWidth pixels, honouring
// explicit line breaks. A single word wider than maxWidth gets its own line.
func Wrap(face font.Face, text string, maxWidth int) []string {
	var out []string
	for _, para := range Lines(text) {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if font.MeasureString(face, next).Ceil() <= maxWidth {
				cur = next
				continue
			}
			out = append(out, cur)
			cur = w
		}
		out = append(out, cur)
	}
	return out
}

// ParseColor accepts color names, #RGB, #RRGGBB, #RRGGBBAA, 0xRRGGBB and
// "transparent".
func ParseColor(s string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "transparent" || v == "none" {
		return color.RGBA{}, nil
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}

	hex := ""
	switch {
	case strings.HasPrefix(v, "#"):
		hex = v[1:]
	case strings.HasPrefix(v, "0x"):
		hex = v[2:]
	default:
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// FFmpegColor renders c in ffmpeg's 0xRRGGBB@alpha form.
func FFmpegColor(c color.RGBA) string {
	return fmt.Sprintf("0x%02X%02X%02X@%.3f", c.R, c.G, c.B, float64(c.A)/255)
}
