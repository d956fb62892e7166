// Package overlay produces title and credits cards for the slideshow.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/img2vid/internal/domain/textcard"
	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/types"
)

// MinDuration is the shortest card that will be produced.
const MinDuration = 100 * time.Millisecond

type CardRequest struct {
	Text       string
	Size       types.Size
	Duration   time.Duration
	Transition time.Duration

	FontPath  string
	FontSize  int
	TextColor string
	BgColor   string
}

// Generator renders cards through Primary and falls back to Fallback when
// Primary is missing or fails. Card images are written to TempDir and
// removed when the returned timeline is closed.
type Generator struct {
	Primary  ports.CardRenderer
	Fallback ports.CardRenderer
	TempDir  string
	Logger   *slog.Logger
}

// Card returns nil when the text is blank.
func (g *Generator) Card(ctx context.Context, req CardRequest) (*timeline.Timeline, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, nil
	}
	d := max(req.Duration, MinDuration)
	fade := min(max(req.Transition, 0), d/2)

	dir := g.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	out := filepath.Join(dir, "card-"+uuid.NewString()+".png")
	spec := textcard.Spec{
		Text:      req.Text,
		Size:      req.Size,
		FontPath:  req.FontPath,
		FontSize:  req.FontSize,
		TextColor: req.TextColor,
		BgColor:   req.BgColor,
	}
	if err := g.render(ctx, spec, out); err != nil {
		_ = os.Remove(out)
		return nil, err
	}

	cleanup := timeline.OnceCloser(func() error {
		if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
	return timeline.Still(timeline.KindCard, out, req.Size, d, cleanup).WithFades(fade, fade), nil
}

func (g *Generator) render(ctx context.Context, spec textcard.Spec, out string) error {
	logger := logging.Component(g.Logger, "overlay")
	if g.Primary != nil {
		err := g.Primary.RenderCard(ctx, spec, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("caption layout failed, using fallback", "error", err)
	}
	if g.Fallback == nil {
		return errors.New("overlay: no card renderer available")
	}
	if err := g.Fallback.RenderCard(ctx, spec, out); err != nil {
		return fmt.Errorf("render text card: %w", err)
	}
	return nil
}
