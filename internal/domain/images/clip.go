package images

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/logging"
)

// Build lays paths out as one continuous clip: each image is shown for d,
// every image after the first cross-fades in over x and overlaps its
// predecessor by x. The frame size is the first image's.
func Build(paths []string, d, x time.Duration, fps int, logger *slog.Logger) (*timeline.Timeline, error) {
	logger = logging.Component(logger, "images")
	parts := make([]*timeline.Timeline, 0, len(paths))
	for i, p := range paths {
		size, err := Size(p)
		if err != nil {
			return nil, err
		}
		logger.Info("adding image", "index", i+1, "total", len(paths), "file", filepath.Base(p), "size", size.String())
		seg := timeline.Still(timeline.KindImage, p, size, d, nil)
		if i > 0 && x > 0 {
			seg = seg.WithCrossFadeIn(x)
		}
		parts = append(parts, seg)
	}
	return timeline.Concatenate(-x, parts...).WithFrameRate(fps), nil
}
