package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/logging"
)

const defaultConfigFile = "img2vid.toml"

// loadFile reads --config, or ./img2vid.toml when it exists.
func loadFile(cmd *cobra.Command) (config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path, false)
	}
	return config.LoadFile(defaultConfigFile, true)
}

func newLogger(cmd *cobra.Command, file config.File) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	if level == "" {
		level = file.Logging.Level
	}
	if format == "" {
		format = file.Logging.Format
	}
	return logging.New(logging.Options{Level: level, Format: format}, os.Stderr)
}

// defaults layers the file over the built-in defaults.
func defaults(file config.File) config.ConversionConfig {
	c := config.Default()
	file.Apply(&c)
	return c
}

func ffmpegPath() string {
	return os.Getenv("IMG2VID_FFMPEG")
}
