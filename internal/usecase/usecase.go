package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/domain/images"
	"github.com/forPelevin/img2vid/internal/domain/overlay"
	"github.com/forPelevin/img2vid/internal/domain/soundtrack"
	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/types"
)

type Deps struct {
	Encoder ports.Encoder
	Prober  ports.Prober
	// Captions is tried first for text cards, Raster when it fails.
	Captions ports.CardRenderer
	Raster   ports.CardRenderer
	Logger   *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Stage string

const (
	Validated           Stage = "validated"
	ImagesListed        Stage = "images_listed"
	TimelineBuilt       Stage = "timeline_built"
	StartOverlayApplied Stage = "start_overlay_applied"
	EndOverlayApplied   Stage = "end_overlay_applied"
	AudioAttached       Stage = "audio_attached"
	Encoded             Stage = "encoded"
	Cleaned             Stage = "cleaned"
)

type Input struct {
	Config config.ConversionConfig
	// OnStage, when set, is called as each stage completes.
	OnStage func(Stage)
	// Progress receives encoder progress.
	Progress func(done, total time.Duration)
}

// Render runs the whole conversion. Every clip and audio handle opened on the
// way is released before it returns, on success and on failure.
func (u Usecase) Render(ctx context.Context, in Input) (res types.RenderResult, err error) {
	cfg := in.Config
	logger := logging.Component(u.d.Logger, "render")
	stage := func(s Stage) {
		logger.Debug("stage", "name", string(s))
		if in.OnStage != nil {
			in.OnStage(s)
		}
	}

	var (
		scope timeline.Scope
		tl    *timeline.Timeline
	)
	defer func() {
		scope.Track(tl)
		if cerr := scope.Close(); cerr != nil {
			logger.Warn("cleanup failed", "error", cerr)
		}
		stage(Cleaned)
	}()

	if err := cfg.Validate(); err != nil {
		return res, err
	}
	stage(Validated)

	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}

	paths, err := images.List(cfg.InputDir)
	if err != nil {
		return res, err
	}
	logger.Info("found images", "count", len(paths))
	stage(ImagesListed)

	x := cfg.Transition()
	tl, err = images.Build(paths, cfg.FrameDuration(), x, cfg.FrameRate, u.d.Logger)
	if err != nil {
		return res, err
	}
	stage(TimelineBuilt)

	cards := &overlay.Generator{
		Primary:  u.d.Captions,
		Fallback: u.d.Raster,
		TempDir:  cfg.TempDir,
		Logger:   u.d.Logger,
	}
	card := func(text string) (*timeline.Timeline, error) {
		return cards.Card(ctx, overlay.CardRequest{
			Text:       text,
			Size:       tl.Size(),
			Duration:   cfg.TextDuration(),
			Transition: x,
			FontPath:   cfg.TextFont,
			FontSize:   cfg.TextFontSize,
			TextColor:  cfg.TextColor,
			BgColor:    cfg.TextBgColor,
		})
	}

	start, err := card(cfg.StartText)
	if err != nil {
		return res, err
	}
	if start != nil {
		logger.Info("applying start text overlay")
		tl = timeline.Concatenate(-x, start, tl).WithFrameRate(cfg.FrameRate)
		stage(StartOverlayApplied)
	}

	end, err := card(cfg.EndText)
	if err != nil {
		return res, err
	}
	if end != nil {
		logger.Info("applying end text overlay")
		tl = timeline.Concatenate(0, tl, end).WithFrameRate(cfg.FrameRate)
		stage(EndOverlayApplied)
	}

	if cfg.AudioPath != "" {
		logger.Info("attaching audio track", "file", filepath.Base(cfg.AudioPath))
		attacher := &soundtrack.Attacher{Prober: u.d.Prober}
		var closers []io.Closer
		tl, closers, err = attacher.Attach(ctx, tl, cfg.AudioPath, x)
		scope.Track(closers...)
		if err != nil {
			return res, err
		}
		stage(AudioAttached)
	}

	logger.Info("writing video", "output", cfg.OutputVideo, "duration", tl.Duration())
	err = u.d.Encoder.Encode(ctx, ports.EncodeRequest{
		Timeline:  tl,
		Output:    cfg.OutputVideo,
		Preset:    cfg.EncoderPreset(),
		FrameRate: cfg.FrameRate,
		TempDir:   cfg.TempDir,
		Progress:  in.Progress,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = os.Remove(cfg.OutputVideo)
		}
		return res, err
	}
	stage(Encoded)

	res = types.RenderResult{Output: cfg.OutputVideo, Duration: tl.Duration()}
	logger.Info("render complete", "duration", res.Duration)
	return res, nil
}
