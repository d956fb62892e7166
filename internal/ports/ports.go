package ports

import (
	"context"
	"time"

	"github.com/forPelevin/img2vid/internal/domain/textcard"
	"github.com/forPelevin/img2vid/internal/domain/timeline"
)

// Prober reports media durations.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// CardRenderer rasterizes a text card to a PNG at outPNG.
type CardRenderer interface {
	RenderCard(ctx context.Context, card textcard.Spec, outPNG string) error
}

type EncodeRequest struct {
	Timeline   *timeline.Timeline
	Output     string
	VideoCodec string
	AudioCodec string
	Preset     string
	FrameRate  int
	TempDir    string
	Progress   func(done, total time.Duration)
}

// Encoder writes a timeline to a video file.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) error
}
