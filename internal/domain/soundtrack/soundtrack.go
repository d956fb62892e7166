// Package soundtrack fits an audio file to a finished timeline.
package soundtrack

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/types"
)

const (
	minAudio    = 100 * time.Millisecond
	defaultFade = 500 * time.Millisecond
)

// Source is an open audio file with its probed duration. The file stays
// open until Close so it cannot be swapped out from under the encoder.
type Source struct {
	Path     string
	Duration time.Duration

	once sync.Once
	f    *os.File
	err  error
}

func (s *Source) Close() error {
	s.once.Do(func() {
		if s.f != nil {
			s.err = s.f.Close()
		}
	})
	return s.err
}

// Track is the source fitted to a video length. It owns no file of its own:
// Close only marks the derived handle released and never closes Source,
// which the caller releases separately.
type Track struct {
	Source   *Source
	Loop     bool
	Duration time.Duration

	mu     sync.Mutex
	closed bool
}

func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *Track) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type Attacher struct {
	Prober ports.Prober
}

// Attach binds the audio at path to tl, looping it when shorter than the
// video and trimming it otherwise. tl is consumed. The returned closers are
// owned by the caller, even when an error is returned.
func (a *Attacher) Attach(ctx context.Context, tl *timeline.Timeline, path string, transition time.Duration) (*timeline.Timeline, []io.Closer, error) {
	src, err := a.open(ctx, path)
	if err != nil {
		return tl, nil, err
	}
	closers := []io.Closer{src}

	if src.Duration <= 0 {
		return tl, closers, types.Errorf(types.InvalidAudio, "Audio file duration must be greater than zero")
	}
	if src.Duration < max(2*transition, minAudio) {
		return tl, closers, types.Errorf(types.InvalidAudio, "Audio file is too short to accommodate fade in/out transitions")
	}

	video := tl.Duration()
	track := &Track{Source: src, Duration: video, Loop: src.Duration < video}
	if track.Loop || src.Duration != video {
		closers = append(closers, track)
	}

	fade := FadeDuration(transition, video)
	return tl.WithAudio(timeline.Audio{
		Path:     src.Path,
		Loop:     track.Loop,
		Duration: track.Duration,
		FadeIn:   fade,
		FadeOut:  fade,
	}), closers, nil
}

// FadeDuration is the symmetric audio fade for a video of the given length.
func FadeDuration(transition, video time.Duration) time.Duration {
	fade := transition
	if fade <= 0 {
		fade = min(defaultFade, video/10)
	}
	return max(min(fade, video/4), 0)
}

func (a *Attacher) open(ctx context.Context, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.Errorf(types.InvalidConfig, "Audio file not found: %s", path)
	}
	d, err := a.Prober.ProbeDuration(ctx, path)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read audio %s: %w", path, err)
	}
	return &Source{Path: path, Duration: d, f: f}, nil
}
