package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/img2vid/internal/domain/textcard"
)

// CaptionRenderer lays text out as a caption: words wrapped to the frame
// width using the font's metrics, every line centered by drawtext, the block
// centered vertically. It needs an ffmpeg built with libfreetype.
type CaptionRenderer struct {
	a *Adapter
}

func (a *Adapter) Captions() *CaptionRenderer { return &CaptionRenderer{a: a} }

func (r *CaptionRenderer) RenderCard(ctx context.Context, card textcard.Spec, outPNG string) error {
	fg, err := textcard.ParseColor(card.TextColor)
	if err != nil {
		return fmt.Errorf("text color: %w", err)
	}
	bg, err := textcard.ParseColor(card.BgColor)
	if err != nil {
		return fmt.Errorf("background color: %w", err)
	}

	fnt := textcard.ResolveFont(card.FontPath, card.FontSize)
	defer fnt.Close()
	lines := textcard.Wrap(fnt.Face, card.Text, card.Size.Width)

	// drawtext reads each line from a file so no text escaping is needed.
	var textFiles []string
	defer func() {
		for _, f := range textFiles {
			_ = os.Remove(f)
		}
	}()
	base := strings.TrimSuffix(outPNG, filepath.Ext(outPNG))
	for i, l := range lines {
		p := fmt.Sprintf("%s.line%02d.txt", base, i)
		if err := os.WriteFile(p, []byte(l), 0o644); err != nil {
			return err
		}
		textFiles = append(textFiles, p)
	}

	lineHeight := fnt.Face.Metrics().Height.Ceil()
	top := (card.Size.Height - lineHeight*len(lines)) / 2
	filters := []string{"format=rgba"}
	for i, p := range textFiles {
		opts := []string{
			"textfile=" + escapeFilterPath(p),
			"expansion=none",
			fmt.Sprintf("fontsize=%d", card.FontSize),
			"fontcolor=" + textcard.FFmpegColor(fg),
			"x=(w-text_w)/2",
			fmt.Sprintf("y=%d", top+i*lineHeight),
		}
		if fnt.Path != "" {
			opts = append(opts, "fontfile="+escapeFilterPath(fnt.Path))
		}
		filters = append(filters, "drawtext="+strings.Join(opts, ":"))
	}

	return r.a.run(ctx, "caption",
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=%s:s=%dx%d:d=1", textcard.FFmpegColor(bg), card.Size.Width, card.Size.Height),
		"-vf", strings.Join(filters, ","),
		"-frames:v", "1",
		outPNG,
	)
}
