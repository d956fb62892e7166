package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the optional TOML defaults file. Zero values leave the built-in
// defaults untouched; CLI flags that were set explicitly win over both.
type File struct {
	OutputDir string `toml:"output_dir"`

	FrameDurationMS int    `toml:"frame_duration_ms"`
	TransitionMS    int    `toml:"transition_ms"`
	FrameRate       int    `toml:"frame_rate"`
	Preset          string `toml:"preset"`

	Text struct {
		DurationMS int    `toml:"duration_ms"`
		Font       string `toml:"font"`
		FontSize   int    `toml:"font_size"`
		Color      string `toml:"color"`
		BgColor    string `toml:"bg_color"`
	} `toml:"text"`

	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// LoadFile reads a defaults file. A missing file is not an error when
// optional is true.
func LoadFile(path string, optional bool) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return f, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Apply overlays non-zero file values onto c.
func (f File) Apply(c *ConversionConfig) {
	setInt(&c.FrameDurationMS, f.FrameDurationMS)
	setInt(&c.TransitionMS, f.TransitionMS)
	setInt(&c.FrameRate, f.FrameRate)
	setStr(&c.Preset, f.Preset)
	setInt(&c.TextDurationMS, f.Text.DurationMS)
	setStr(&c.TextFont, f.Text.Font)
	setInt(&c.TextFontSize, f.Text.FontSize)
	setStr(&c.TextColor, f.Text.Color)
	setStr(&c.TextBgColor, f.Text.BgColor)
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
