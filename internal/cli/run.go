package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/pipeline"
	"github.com/forPelevin/img2vid/internal/types"
)

func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input-dir", "", "Directory containing the source images")
	f.String("output-video", "", "Explicit target path for the generated video")
	f.String("output-dir", pipeline.DefaultOutputRoot, "Root folder where versioned outputs are stored")
	f.String("output-name", "", "Base filename (without extension) for the generated video")
	f.String("audio", "", "Optional soundtrack to merge with the slideshow")

	f.Int("frame-duration-ms", config.DefaultFrameDurationMS, "Duration each image remains on screen (milliseconds)")
	f.Int("transition-ms", config.DefaultTransitionMS, "Cross-fade duration between images (milliseconds)")
	f.Int("frame-rate", config.DefaultFrameRate, "Frames per second for the final video")

	f.String("start-text", "", "Optional opening title text overlay")
	f.String("end-text", "", "Optional closing credits text overlay")
	f.Int("text-duration-ms", config.DefaultTextDurationMS, "Duration for title/credits overlays (milliseconds)")
	f.String("text-font", "", "Path to a TTF/OTF font for overlay text")
	f.Int("text-font-size", config.DefaultTextFontSize, "Font size for overlay text")
	f.String("text-color", config.DefaultTextColor, "Text color (name or hex) for overlays")
	f.String("text-bg-color", config.DefaultTextBgColor, "Background color (name or hex) for overlays")

	// Hidden tuning flag
	f.String("preset", config.DefaultPreset, "x264 encoder preset")
	_ = f.MarkHidden("preset")

	_ = cmd.MarkFlagRequired("input-dir")
}

// renderConfig builds the conversion config: built-in defaults, then the
// TOML file, then flags the user actually set.
func renderConfig(cmd *cobra.Command, file config.File) (config.ConversionConfig, error) {
	f := cmd.Flags()
	c := defaults(file)

	c.InputDir, _ = f.GetString("input-dir")
	c.AudioPath, _ = f.GetString("audio")
	c.StartText, _ = f.GetString("start-text")
	c.EndText, _ = f.GetString("end-text")

	ints := map[string]*int{
		"frame-duration-ms": &c.FrameDurationMS,
		"transition-ms":     &c.TransitionMS,
		"frame-rate":        &c.FrameRate,
		"text-duration-ms":  &c.TextDurationMS,
		"text-font-size":    &c.TextFontSize,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	strs := map[string]*string{
		"text-font":     &c.TextFont,
		"text-color":    &c.TextColor,
		"text-bg-color": &c.TextBgColor,
		"preset":        &c.Preset,
	}
	for name, dst := range strs {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}

	explicit, _ := f.GetString("output-video")
	root, _ := f.GetString("output-dir")
	if !f.Changed("output-dir") && file.OutputDir != "" {
		root = file.OutputDir
	}
	name, _ := f.GetString("output-name")
	out, err := pipeline.ResolveOutputPath(c.InputDir, explicit, root, name)
	if err != nil {
		return c, err
	}
	c.OutputVideo = out
	return c, nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	file, err := loadFile(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, file)
	if err != nil {
		return err
	}
	conv, err := renderConfig(cmd, file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := pipeline.Config{
		Conversion: conv,
		FFmpegPath: ffmpegPath(),
		Logger:     logger,
	}
	var bar *progressbar.ProgressBar
	if logging.IsTerminal(os.Stderr) {
		cfg.Progress = func(done, total time.Duration) {
			if bar == nil {
				bar = newProgressBar(total)
			}
			_ = bar.Set64(done.Milliseconds())
		}
	}

	res, err := pipeline.Run(ctx, cfg)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if types.IsConversionError(err) {
			logger.Warn("conversion failed", "error", err)
		} else {
			logger.Error("unexpected error while rendering video", "error", err)
		}
		return errReported
	}

	logger.Info("video written", "output", res.Output, "duration", res.Duration)
	fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	return nil
}

func newProgressBar(total time.Duration) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total.Milliseconds(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Encoding"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
