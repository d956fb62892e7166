package config

import (
	"os"
	"strings"
	"time"

	"github.com/forPelevin/img2vid/internal/types"
)

const (
	DefaultFrameDurationMS = 3000
	DefaultTransitionMS    = 500
	DefaultFrameRate       = 30
	DefaultTextDurationMS  = 2000
	DefaultTextFontSize    = 54
	DefaultTextColor       = "white"
	DefaultTextBgColor     = "#000000"
	DefaultPreset          = "medium"
)

// ConversionConfig is the immutable input bundle for one render.
type ConversionConfig struct {
	InputDir    string
	OutputVideo string
	AudioPath   string

	FrameDurationMS int
	TransitionMS    int
	FrameRate       int

	StartText      string
	EndText        string
	TextDurationMS int
	TextFont       string
	TextFontSize   int
	TextColor      string
	TextBgColor    string

	// Preset is the x264 speed/quality preset. Empty means DefaultPreset.
	Preset string
	// TempDir is where intermediate files (text cards, filter scripts) are
	// staged. Empty means a fresh directory inside the output directory.
	TempDir string
}

// Default returns a config with every numeric and styling field set to its
// default value. Paths are left empty.
func Default() ConversionConfig {
	return ConversionConfig{
		FrameDurationMS: DefaultFrameDurationMS,
		TransitionMS:    DefaultTransitionMS,
		FrameRate:       DefaultFrameRate,
		TextDurationMS:  DefaultTextDurationMS,
		TextFontSize:    DefaultTextFontSize,
		TextColor:       DefaultTextColor,
		TextBgColor:     DefaultTextBgColor,
		Preset:          DefaultPreset,
	}
}

// Validate checks ranges and paths. It performs only stat calls, never opens
// media.
func (c ConversionConfig) Validate() error {
	if c.InputDir == "" {
		return types.Errorf(types.InvalidConfig, "input directory is required")
	}
	if fi, err := os.Stat(c.InputDir); err != nil || !fi.IsDir() {
		return types.Errorf(types.InvalidConfig, "input directory not found: %s", c.InputDir)
	}
	if c.OutputVideo == "" {
		return types.Errorf(types.InvalidConfig, "output video path is required")
	}
	if c.AudioPath != "" {
		if fi, err := os.Stat(c.AudioPath); err != nil || !fi.Mode().IsRegular() {
			return types.Errorf(types.InvalidConfig, "audio file not found: %s", c.AudioPath)
		}
	}
	return c.validateNumbers()
}

func (c ConversionConfig) validateNumbers() error {
	if c.FrameDurationMS <= 0 {
		return types.Errorf(types.InvalidConfig, "frame duration must be greater than 0 ms")
	}
	if c.TransitionMS < 0 {
		return types.Errorf(types.InvalidConfig, "transition duration cannot be negative")
	}
	if c.TransitionMS > c.FrameDurationMS {
		return types.Errorf(types.InvalidConfig, "transition duration cannot exceed frame duration")
	}
	if c.FrameRate <= 0 {
		return types.Errorf(types.InvalidConfig, "frame rate must be a positive integer")
	}
	if (c.HasStartText() || c.HasEndText()) && c.TextDurationMS <= 0 {
		return types.Errorf(types.InvalidConfig, "text duration must be greater than 0 ms")
	}
	if c.TextFontSize <= 0 {
		return types.Errorf(types.InvalidConfig, "text font size must be greater than 0")
	}
	return nil
}

func (c ConversionConfig) HasStartText() bool { return strings.TrimSpace(c.StartText) != "" }
func (c ConversionConfig) HasEndText() bool   { return strings.TrimSpace(c.EndText) != "" }

func (c ConversionConfig) FrameDuration() time.Duration { return ms(c.FrameDurationMS) }
func (c ConversionConfig) Transition() time.Duration    { return ms(c.TransitionMS) }
func (c ConversionConfig) TextDuration() time.Duration  { return ms(c.TextDurationMS) }

func (c ConversionConfig) EncoderPreset() string {
	if p := strings.TrimSpace(c.Preset); p != "" {
		return p
	}
	return DefaultPreset
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
