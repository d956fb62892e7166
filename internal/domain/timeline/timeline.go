// Package timeline models the slideshow as a list of time-addressed visual
// segments. A Timeline is a description, not decoded media: the ffmpeg
// adapter compiles it into a filter graph at encode time.
//
// Every operation returns a new Timeline and moves segment ownership into it,
// so a stage never keeps using a timeline it handed on.
package timeline

import (
	"errors"
	"io"
	"time"

	"github.com/forPelevin/img2vid/internal/types"
)

type Kind int

const (
	KindImage Kind = iota
	KindCard
)

func (k Kind) String() string {
	if k == KindCard {
		return "card"
	}
	return "image"
}

// Segment is one still picture placed on the timeline.
type Segment struct {
	Kind     Kind
	Path     string
	Size     types.Size
	Start    time.Duration
	Duration time.Duration

	// CrossFadeIn blends the segment in over whatever is underneath.
	CrossFadeIn time.Duration
	// FadeIn and FadeOut ramp the segment from and to black.
	FadeIn  time.Duration
	FadeOut time.Duration

	res io.Closer
}

func (s Segment) End() time.Duration { return s.Start + s.Duration }

// Audio is the soundtrack bound to a timeline. Loop means the source is
// repeated; either way the result is cut to Duration.
type Audio struct {
	Path     string
	Loop     bool
	Duration time.Duration
	FadeIn   time.Duration
	FadeOut  time.Duration
}

type Timeline struct {
	size     types.Size
	fps      int
	segments []Segment
	audio    *Audio
}

// Still creates a single-segment timeline showing path for d. res, if not
// nil, is released when the segment is closed.
func Still(kind Kind, path string, size types.Size, d time.Duration, res io.Closer) *Timeline {
	return &Timeline{
		size:     size,
		segments: []Segment{{Kind: kind, Path: path, Size: size, Duration: d, res: res}},
	}
}

func (t *Timeline) Size() types.Size { return t.size }
func (t *Timeline) FrameRate() int   { return t.fps }
func (t *Timeline) Audio() *Audio {
	if t.audio == nil {
		return nil
	}
	a := *t.audio
	return &a
}

func (t *Timeline) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Duration is the end of the last visible segment.
func (t *Timeline) Duration() time.Duration {
	var end time.Duration
	for _, s := range t.segments {
		if e := s.End(); e > end {
			end = e
		}
	}
	return end
}

// WithCrossFadeIn returns a timeline whose opening segments blend in over d.
func (t *Timeline) WithCrossFadeIn(d time.Duration) *Timeline {
	out := t.take()
	if d <= 0 {
		return out
	}
	for i := range out.segments {
		if out.segments[i].Start == 0 {
			out.segments[i].CrossFadeIn = min(d, out.segments[i].Duration)
		}
	}
	return out
}

// WithFades ramps the whole timeline from black at the start and to black at
// the end.
func (t *Timeline) WithFades(in, out time.Duration) *Timeline {
	res := t.take()
	end := res.Duration()
	for i := range res.segments {
		s := &res.segments[i]
		if in > 0 && s.Start == 0 {
			s.FadeIn = min(in, s.Duration)
		}
		if out > 0 && s.End() == end {
			s.FadeOut = min(out, s.Duration)
		}
	}
	return res
}

func (t *Timeline) WithFrameRate(fps int) *Timeline {
	out := t.take()
	out.fps = fps
	return out
}

// WithAudio binds a, replacing any previously bound audio.
func (t *Timeline) WithAudio(a Audio) *Timeline {
	out := t.take()
	out.audio = &a
	return out
}

// Concatenate places parts one after another. Each part starts padding after
// the previous one ends; a negative padding overlaps them. A part never
// starts before the one preceding it. The frame size is the first part's,
// the frame rate the highest among the parts. Bound audio is dropped; audio
// is attached to the finished timeline.
func Concatenate(padding time.Duration, parts ...*Timeline) *Timeline {
	out := &Timeline{}
	var cursor time.Duration
	first := true
	for _, p := range parts {
		if p == nil {
			continue
		}
		if first {
			out.size = p.size
			first = false
		}
		out.fps = max(out.fps, p.fps)

		start := cursor
		for _, s := range p.segments {
			s.Start += start
			out.segments = append(out.segments, s)
		}
		cursor = max(start, start+p.Duration()+padding)
		p.release()
	}
	return out
}

// Close releases every resource held by the segments. Safe to call more
// than once.
func (t *Timeline) Close() error {
	if t == nil {
		return nil
	}
	var errs []error
	for _, s := range t.segments {
		if s.res == nil {
			continue
		}
		if err := s.res.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// take moves the contents of t into a fresh timeline.
func (t *Timeline) take() *Timeline {
	out := &Timeline{size: t.size, fps: t.fps, audio: t.audio}
	out.segments = make([]Segment, len(t.segments))
	copy(out.segments, t.segments)
	t.release()
	return out
}

func (t *Timeline) release() {
	t.segments = nil
	t.audio = nil
}
