package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/img2vid/internal/ports/adapters/raster"
	"github.com/forPelevin/img2vid/internal/runlog"
	"github.com/forPelevin/img2vid/internal/types"
	"github.com/forPelevin/img2vid/internal/usecase"
)

const (
	lockName      = ".img2vid.lock"
	lockRetry     = 250 * time.Millisecond
	tempDirPrefix = ".img2vid-tmp-"
)

type Config struct {
	Conversion config.ConversionConfig

	// FFmpegPath overrides the ffmpeg binary. Empty means "ffmpeg" from PATH.
	FFmpegPath string

	Logger   *slog.Logger
	Progress func(done, total time.Duration)
	OnStage  func(usecase.Stage)
}

func (c Config) Validate() error {
	return c.Conversion.Validate()
}

// Run renders one video. The output directory is locked for the duration of
// the render and a line is appended to its render.log whatever the outcome.
func Run(ctx context.Context, cfg Config) (types.RenderResult, error) {
	if err := cfg.Validate(); err != nil {
		return types.RenderResult{}, err
	}
	logger := logging.Component(cfg.Logger, "pipeline")
	conv := cfg.Conversion
	runID := uuid.NewString()
	start := time.Now()

	outDir := filepath.Dir(conv.OutputVideo)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.RenderResult{}, fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outDir, lockName))
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return types.RenderResult{}, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return types.RenderResult{}, fmt.Errorf("output directory %s is locked by another render", outDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", "error", err)
		}
	}()

	res, err := render(ctx, cfg, runID, logger)

	entry := runlog.NewEntry(runID, conv.OutputVideo, start, time.Now(), res.Duration, err)
	if lerr := runlog.Append(outDir, entry); lerr != nil {
		logger.Error("failed to write render log entry", "error", lerr)
	}
	return res, err
}

func render(ctx context.Context, cfg Config, runID string, logger *slog.Logger) (types.RenderResult, error) {
	conv := cfg.Conversion
	if conv.TempDir == "" {
		dir := filepath.Join(filepath.Dir(conv.OutputVideo), tempDirPrefix+runID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.RenderResult{}, fmt.Errorf("create temp dir: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
			}
		}()
		conv.TempDir = dir
	}
	logger.Debug("render workspace", "run_id", runID, "temp_dir", conv.TempDir)

	// adapters
	ff := ffmpeg.New(cfg.FFmpegPath, cfg.Logger)
	uc := usecase.New(usecase.Deps{
		Encoder:  ff,
		Prober:   ff,
		Captions: ff.Captions(),
		Raster:   raster.New(),
		Logger:   cfg.Logger,
	})
	return uc.Render(ctx, usecase.Input{
		Config:   conv,
		OnStage:  cfg.OnStage,
		Progress: cfg.Progress,
	})
}

// ensure adapters implement ports
var _ ports.Encoder = (*ffmpeg.Adapter)(nil)
var _ ports.Prober = (*ffmpeg.Adapter)(nil)
var _ ports.CardRenderer = (*ffmpeg.CaptionRenderer)(nil)
var _ ports.CardRenderer = (*raster.Renderer)(nil)
