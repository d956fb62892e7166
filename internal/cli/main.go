package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errReported marks an error that has already been logged.
var errReported = errors.New("reported")

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "img2vid",
		Short:        "Turn a folder of images into an MP4 slideshow",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRender,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.String("config", "", "TOML file with default settings (default ./img2vid.toml if present)")
	pf.String("log-level", "", "Logging verbosity: debug, info, warn, error (default info)")
	pf.String("log-format", "", "Log format: console or json (default console)")

	addRenderFlags(root)
	root.AddCommand(newServeCmd(), newHistoryCmd())
	return root
}
