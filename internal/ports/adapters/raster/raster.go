package raster

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/forPelevin/img2vid/internal/domain/textcard"
)

// Renderer draws cards in-process. Lines are taken as written, each centered
// horizontally, the block centered vertically, LineSpacing pixels apart.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

func (r *Renderer) RenderCard(ctx context.Context, card textcard.Spec, outPNG string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := Draw(card)
	if err != nil {
		return err
	}

	f, err := os.Create(outPNG)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode card: %w", err)
	}
	return f.Close()
}

// Draw rasterizes card to an RGBA image of the card size.
func Draw(card textcard.Spec) (*image.RGBA, error) {
	if card.Size.Width <= 0 || card.Size.Height <= 0 {
		return nil, fmt.Errorf("card size %s is empty", card.Size)
	}
	fg, err := textcard.ParseColor(card.TextColor)
	if err != nil {
		return nil, fmt.Errorf("text color: %w", err)
	}
	bg, err := textcard.ParseColor(card.BgColor)
	if err != nil {
		return nil, fmt.Errorf("background color: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, card.Size.Width, card.Size.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	fnt := textcard.ResolveFont(card.FontPath, card.FontSize)
	defer fnt.Close()

	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: fnt.Face}

	type metric struct {
		text          string
		width, height int
		top           int
	}
	lines := textcard.Lines(card.Text)
	metrics := make([]metric, 0, len(lines))
	total := 0
	for _, l := range lines {
		b, _ := d.BoundString(l)
		m := metric{
			text:   l,
			width:  (b.Max.X - b.Min.X).Ceil(),
			height: (b.Max.Y - b.Min.Y).Ceil(),
			top:    b.Min.Y.Floor(),
		}
		if m.height == 0 {
			m.height = card.FontSize
		}
		metrics = append(metrics, m)
		total += m.height
	}
	total += max(0, len(metrics)-1) * textcard.LineSpacing

	y := (card.Size.Height - total) / 2
	for _, m := range metrics {
		x := (card.Size.Width - m.width) / 2
		// Dot is the baseline; shift so the glyph box top lands on y.
		d.Dot = fixed.P(x, y-m.top)
		d.DrawString(m.text)
		y += m.height + textcard.LineSpacing
	}
	return img, nil
}
