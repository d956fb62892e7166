package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/pipeline"
	"github.com/forPelevin/img2vid/internal/server"
	"github.com/forPelevin/img2vid/internal/types"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /render over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", defaultAddr(), "Listen address (env PORT)")
	return cmd
}

func defaultAddr() string {
	if p := os.Getenv("PORT"); p != "" {
		return ":" + p
	}
	return ":5000"
}

func runServe(cmd *cobra.Command, _ []string) error {
	file, err := loadFile(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, file)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")

	ffmpeg := ffmpegPath()
	render := func(ctx context.Context, conv config.ConversionConfig) (types.RenderResult, error) {
		return pipeline.Run(ctx, pipeline.Config{Conversion: conv, FFmpegPath: ffmpeg, Logger: logger})
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(render, defaults(file), logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
