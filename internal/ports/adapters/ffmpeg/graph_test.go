package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/ports"
	"github.com/forPelevin/img2vid/internal/types"
)

var hd = types.Size{Width: 1280, Height: 720}

func slideshow(n int, d, x time.Duration) *timeline.Timeline {
	parts := make([]*timeline.Timeline, 0, n)
	for i := 0; i < n; i++ {
		p := timeline.Still(timeline.KindImage, "img"+string(rune('a'+i))+".png", hd, d, nil)
		if i > 0 {
			p = p.WithCrossFadeIn(x)
		}
		parts = append(parts, p)
	}
	return timeline.Concatenate(-x, parts...).WithFrameRate(30)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestBuildEncodeArgs_VideoOnly(t *testing.T) {
	args, err := buildEncodeArgs(ports.EncodeRequest{
		Timeline:  slideshow(3, 2*time.Second, 500*time.Millisecond),
		Output:    "/out/show.mp4",
		Preset:    "medium",
		FrameRate: 30,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	joined := strings.Join(args, " ")

	if n := strings.Count(joined, "-loop 1"); n != 3 {
		t.Fatalf("expected 3 looped inputs, got %d: %s", n, joined)
	}
	if got := argValue(args, "-c:v"); got != "libx264" {
		t.Fatalf("video codec = %q", got)
	}
	if got := argValue(args, "-preset"); got != "medium" {
		t.Fatalf("preset = %q", got)
	}
	if got := argValue(args, "-t"); got != "2.000" {
		// first -t belongs to the first input
		t.Fatalf("first input duration = %q", got)
	}
	if args[len(args)-1] != "/out/show.mp4" {
		t.Fatalf("output must be last: %v", args)
	}
	if !strings.Contains(joined, "-t 5.000 -movflags") {
		t.Fatalf("expected output duration 5.000: %s", joined)
	}
	if strings.Contains(joined, "-c:a") || !strings.Contains(joined, "-an") {
		t.Fatalf("no audio codec expected without audio: %s", joined)
	}
	if strings.Contains(joined, "[aout]") {
		t.Fatalf("unexpected audio mapping: %s", joined)
	}
}

func TestFilterGraph_OffsetsAndFades(t *testing.T) {
	g := filterGraph(slideshow(3, 2*time.Second, 500*time.Millisecond), 30)

	wants := []string{
		"color=c=black:s=1280x720:r=30:d=5.000,format=rgba[base]",
		"[0:v]format=rgba,setpts=PTS-STARTPTS+0.000/TB[s0]",
		"[1:v]format=rgba,fade=t=in:st=0:d=0.500:alpha=1,setpts=PTS-STARTPTS+1.500/TB[s1]",
		"[2:v]format=rgba,fade=t=in:st=0:d=0.500:alpha=1,setpts=PTS-STARTPTS+3.000/TB[s2]",
		"[base][s0]overlay=x=(W-w)/2:y=(H-h)/2:eof_action=pass[v0]",
		"[v1][s2]overlay",
		"[v2]scale=trunc(iw/2)*2:trunc(ih/2)*2,format=yuv420p[vout]",
	}
	for _, w := range wants {
		if !strings.Contains(g, w) {
			t.Fatalf("graph missing %q:\n%s", w, g)
		}
	}
}

func TestFilterGraph_CardFades(t *testing.T) {
	card := timeline.Still(timeline.KindCard, "card.png", hd, time.Second, nil).
		WithFades(500*time.Millisecond, 500*time.Millisecond)
	g := filterGraph(card, 25)
	if !strings.Contains(g, "fade=t=in:st=0:d=0.500,fade=t=out:st=0.500:d=0.500") {
		t.Fatalf("card fades missing:\n%s", g)
	}
}

func TestBuildEncodeArgs_Audio(t *testing.T) {
	tl := slideshow(2, 3*time.Second, 0).WithAudio(timeline.Audio{
		Path:     "/music/song.mp3",
		Loop:     true,
		Duration: 6 * time.Second,
		FadeIn:   500 * time.Millisecond,
		FadeOut:  500 * time.Millisecond,
	})
	args, err := buildEncodeArgs(ports.EncodeRequest{Timeline: tl, Output: "o.mp4", FrameRate: 24, AudioCodec: "aac"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-stream_loop -1 -i /music/song.mp3") {
		t.Fatalf("expected looped audio input: %s", joined)
	}
	if !strings.Contains(joined, "-map [aout]") || argValue(args, "-c:a") != "aac" {
		t.Fatalf("expected aac audio mapping: %s", joined)
	}
	g := argValue(args, "-filter_complex")
	if !strings.Contains(g, "[2:a]atrim=0:6.000,asetpts=PTS-STARTPTS,afade=t=in:st=0:d=0.500,afade=t=out:st=5.500:d=0.500[aout]") {
		t.Fatalf("unexpected audio chain:\n%s", g)
	}
	if strings.Contains(joined, "-preset") {
		t.Fatalf("empty preset should be omitted: %s", joined)
	}
}

func TestBuildEncodeArgs_Errors(t *testing.T) {
	if _, err := buildEncodeArgs(ports.EncodeRequest{Output: "o.mp4", FrameRate: 30}); err == nil {
		t.Fatalf("expected nil timeline error")
	}
	if _, err := buildEncodeArgs(ports.EncodeRequest{Timeline: slideshow(1, time.Second, 0), FrameRate: 30}); err == nil {
		t.Fatalf("expected missing output error")
	}
	noRate := timeline.Still(timeline.KindImage, "a.png", hd, time.Second, nil)
	if _, err := buildEncodeArgs(ports.EncodeRequest{Timeline: noRate, Output: "o.mp4"}); err == nil {
		t.Fatalf("expected frame rate error")
	}
}

func TestReadProgress(t *testing.T) {
	in := "frame=10\nout_time_us=1500000\nprogress=continue\nout_time_ms=N/A\nout_time_us=3000000\nprogress=end\n"
	var got []time.Duration
	readProgress(strings.NewReader(in), func(d time.Duration) { got = append(got, d) })
	if len(got) != 2 || got[0] != 1500*time.Millisecond || got[1] != 3*time.Second {
		t.Fatalf("progress = %v", got)
	}
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration([]byte(`{"format":{"duration":"3.250000"},"streams":[]}`))
	if err != nil || d != 3250*time.Millisecond {
		t.Fatalf("got %s, %v", d, err)
	}
	d, err = parseProbeDuration([]byte(`{"format":{},"streams":[{"codec_type":"audio","duration":"1.5"},{"duration":"2.0"}]}`))
	if err != nil || d != 2*time.Second {
		t.Fatalf("stream fallback: got %s, %v", d, err)
	}
	if _, err := parseProbeDuration([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTailBuffer(t *testing.T) {
	var b tailBuffer
	b.Write([]byte(strings.Repeat("a", stderrTail)))
	b.Write([]byte("END"))
	s := b.String()
	if len(s) != stderrTail || !strings.HasSuffix(s, "END") {
		t.Fatalf("unexpected tail (len %d)", len(s))
	}
}
