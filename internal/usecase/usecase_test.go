package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/domain/textcard"
	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/types"
)

func TestRender_Scenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		startText string
		endText   string
		textMS    int
		want      time.Duration
		wantCards int
	}{
		{name: "images only", want: 5 * time.Second},
		{name: "start card overlaps first image", startText: "Intro", textMS: 1000, want: 5500 * time.Millisecond, wantCards: 1},
		{name: "end card appended", endText: "Fin", textMS: 1000, want: 6 * time.Second, wantCards: 1},
		{name: "both cards", startText: "Intro", endText: "Fin", textMS: 1000, want: 6500 * time.Millisecond, wantCards: 2},
		{name: "blank text ignored", startText: "  ", endText: "\n", textMS: 1000, want: 5 * time.Second},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, 3)
			cfg.StartText = tc.startText
			cfg.EndText = tc.endText
			cfg.TextDurationMS = tc.textMS

			enc := &fakeEncoder{}
			cards := &fakeCards{}
			var stages []Stage
			res, err := New(Deps{Encoder: enc, Captions: cards}).Render(context.Background(), Input{
				Config:  cfg,
				OnStage: func(s Stage) { stages = append(stages, s) },
			})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if res.Duration != tc.want || enc.duration != tc.want {
				t.Fatalf("duration = %s (encoded %s), want %s", res.Duration, enc.duration, tc.want)
			}
			if res.Output != cfg.OutputVideo {
				t.Fatalf("output = %q", res.Output)
			}
			if cards.calls != tc.wantCards || enc.cardFiles != tc.wantCards {
				t.Fatalf("cards rendered=%d encoded=%d, want %d", cards.calls, enc.cardFiles, tc.wantCards)
			}
			for _, p := range cards.paths {
				if _, err := os.Stat(p); !os.IsNotExist(err) {
					t.Fatalf("card image %s should be removed after render", p)
				}
			}
			if enc.req.Preset != config.DefaultPreset || enc.req.FrameRate != 30 || enc.req.TempDir != cfg.TempDir {
				t.Fatalf("unexpected encode request: %+v", enc.req)
			}
			if enc.audio != nil {
				t.Fatalf("no audio expected")
			}
			if stages[0] != Validated || stages[len(stages)-1] != Cleaned || stages[len(stages)-2] != Encoded {
				t.Fatalf("unexpected stages: %v", stages)
			}
		})
	}
}

func TestRender_Audio(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 3)
	cfg.AudioPath = filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(cfg.AudioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := &fakeEncoder{}
	var stages []Stage
	_, err := New(Deps{Encoder: enc, Prober: fakeProber{d: 2 * time.Second}}).Render(context.Background(), Input{
		Config:  cfg,
		OnStage: func(s Stage) { stages = append(stages, s) },
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if enc.audio == nil || !enc.audio.Loop || enc.audio.Duration != 5*time.Second {
		t.Fatalf("audio = %+v", enc.audio)
	}
	if enc.audio.FadeIn != 500*time.Millisecond || enc.audio.FadeOut != 500*time.Millisecond {
		t.Fatalf("audio fades = %s/%s", enc.audio.FadeIn, enc.audio.FadeOut)
	}
	if !contains(stages, AudioAttached) {
		t.Fatalf("expected audio stage, got %v", stages)
	}
}

func TestRender_FailuresStillClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		mutate   func(t *testing.T, cfg *config.ConversionConfig)
		deps     func(d *Deps)
		wantKind types.ErrorKind
	}{
		{
			name:     "transition exceeds frame duration",
			mutate:   func(_ *testing.T, c *config.ConversionConfig) { c.TransitionMS = c.FrameDurationMS + 1 },
			wantKind: types.InvalidConfig,
		},
		{
			name: "no images",
			mutate: func(t *testing.T, c *config.ConversionConfig) {
				c.InputDir = t.TempDir()
			},
			wantKind: types.EmptyInput,
		},
		{
			name: "audio too short",
			mutate: func(t *testing.T, c *config.ConversionConfig) {
				c.AudioPath = filepath.Join(t.TempDir(), "beep.wav")
				if err := os.WriteFile(c.AudioPath, []byte("RIFF"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			deps:     func(d *Deps) { d.Prober = fakeProber{d: 300 * time.Millisecond} },
			wantKind: types.InvalidAudio,
		},
		{
			name: "encoder failure",
			mutate: func(_ *testing.T, c *config.ConversionConfig) {
				c.EndText = "Fin"
			},
			deps: func(d *Deps) { d.Encoder = &fakeEncoder{err: errors.New("exit status 1")} },
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, 2)
			tc.mutate(t, &cfg)
			cards := &fakeCards{}
			d := Deps{Encoder: &fakeEncoder{}, Captions: cards}
			if tc.deps != nil {
				tc.deps(&d)
			}

			var stages []Stage
			_, err := New(d).Render(context.Background(), Input{
				Config:  cfg,
				OnStage: func(s Stage) { stages = append(stages, s) },
			})
			if err == nil {
				t.Fatalf("expected error")
			}
			if types.KindOf(err) != tc.wantKind {
				t.Fatalf("kind = %q, want %q (%v)", types.KindOf(err), tc.wantKind, err)
			}
			if len(stages) == 0 || stages[len(stages)-1] != Cleaned {
				t.Fatalf("cleanup must run, stages %v", stages)
			}
			if contains(stages, Encoded) {
				t.Fatalf("encode should not complete")
			}
			for _, p := range cards.paths {
				if _, err := os.Stat(p); !os.IsNotExist(err) {
					t.Fatalf("card image %s leaked", p)
				}
			}
		})
	}
}

func TestRender_ValidatesBeforeTouchingOutput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1)
	cfg.OutputVideo = filepath.Join(t.TempDir(), "nested", "deeper", "out.mp4")
	cfg.FrameRate = 0

	_, err := New(Deps{Encoder: &fakeEncoder{}}).Render(context.Background(), Input{Config: cfg})
	if types.KindOf(err) != types.InvalidConfig {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cfg.OutputVideo)); !os.IsNotExist(err) {
		t.Fatalf("output dir must not be created for invalid config")
	}
}

func testConfig(t *testing.T, n int) config.ConversionConfig {
	t.Helper()
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		writePNG(t, filepath.Join(in, fmt.Sprintf("%03d.png", i)))
	}
	cfg := config.Default()
	cfg.InputDir = in
	cfg.OutputVideo = filepath.Join(tmp, "out", "show.mp4")
	cfg.FrameDurationMS = 2000
	cfg.TransitionMS = 500
	cfg.TempDir = filepath.Join(tmp, "work")
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 18))); err != nil {
		t.Fatal(err)
	}
}

func contains(stages []Stage, s Stage) bool {
	for _, v := range stages {
		if v == s {
			return true
		}
	}
	return false
}

type fakeEncoder struct {
	err       error
	req       ports.EncodeRequest
	duration  time.Duration
	audio     *timeline.Audio
	cardFiles int
}

func (f *fakeEncoder) Encode(_ context.Context, req ports.EncodeRequest) error {
	f.req = req
	f.duration = req.Timeline.Duration()
	f.audio = req.Timeline.Audio()
	for _, s := range req.Timeline.Segments() {
		if s.Kind != timeline.KindCard {
			continue
		}
		if _, err := os.Stat(s.Path); err == nil {
			f.cardFiles++
		}
	}
	return f.err
}

type fakeCards struct {
	calls int
	paths []string
}

func (f *fakeCards) RenderCard(_ context.Context, _ textcard.Spec, outPNG string) error {
	f.calls++
	f.paths = append(f.paths, outPNG)
	return os.WriteFile(outPNG, []byte("png"), 0o644)
}

type fakeProber struct {
	d time.Duration
}

func (f fakeProber) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	return f.d, nil
}
