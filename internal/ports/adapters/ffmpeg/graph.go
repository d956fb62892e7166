package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/img2vid/internal/domain/timeline"
	"github.com/forPelevin/img2vid/internal/ports"
)

// buildEncodeArgs turns a timeline into ffmpeg arguments. Every segment is
// a looped still input; they are stacked on a black canvas at their start
// offsets, so overlapping segments blend through their alpha fades.
func buildEncodeArgs(req ports.EncodeRequest) ([]string, error) {
	tl := req.Timeline
	if tl == nil {
		return nil, errors.New("encode: timeline is nil")
	}
	segs := tl.Segments()
	if len(segs) == 0 {
		return nil, errors.New("encode: timeline is empty")
	}
	if req.Output == "" {
		return nil, errors.New("encode: output path is required")
	}
	fps := req.FrameRate
	if fps <= 0 {
		fps = tl.FrameRate()
	}
	if fps <= 0 {
		return nil, errors.New("encode: frame rate must be positive")
	}
	total := tl.Duration()

	args := []string{"-y", "-hide_banner", "-nostats", "-progress", "pipe:1"}
	for _, s := range segs {
		args = append(args,
			"-loop", "1",
			"-framerate", strconv.Itoa(fps),
			"-t", fmtSeconds(s.Duration),
			"-i", s.Path,
		)
	}
	audio := tl.Audio()
	if audio != nil {
		if audio.Loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", audio.Path)
	}

	args = append(args, "-filter_complex", filterGraph(tl, fps))
	args = append(args, "-map", "[vout]")
	if audio != nil {
		args = append(args, "-map", "[aout]")
	}

	videoCodec := req.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	args = append(args, "-c:v", videoCodec)
	if req.Preset != "" {
		args = append(args, "-preset", req.Preset)
	}
	args = append(args, "-r", strconv.Itoa(fps), "-pix_fmt", "yuv420p")
	if audio != nil {
		audioCodec := req.AudioCodec
		if audioCodec == "" {
			audioCodec = DefaultAudioCodec
		}
		args = append(args, "-c:a", audioCodec, "-b:a", audioBitrate)
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-t", fmtSeconds(total),
		"-movflags", "+faststart",
		req.Output,
	)
	return args, nil
}

func filterGraph(tl *timeline.Timeline, fps int) string {
	segs := tl.Segments()
	size := tl.Size()
	total := tl.Duration()

	var parts []string
	parts = append(parts, fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s,format=rgba[base]",
		size.Width, size.Height, fps, fmtSeconds(total)))

	for i, s := range segs {
		chain := []string{"format=rgba"}
		chain = append(chain, segmentFades(s)...)
		chain = append(chain, fmt.Sprintf("setpts=PTS-STARTPTS+%s/TB", fmtSeconds(s.Start)))
		parts = append(parts, fmt.Sprintf("[%d:v]%s[s%d]", i, strings.Join(chain, ","), i))
	}

	prev := "base"
	for i := range segs {
		out := fmt.Sprintf("v%d", i)
		parts = append(parts, fmt.Sprintf("[%s][s%d]overlay=x=(W-w)/2:y=(H-h)/2:eof_action=pass[%s]", prev, i, out))
		prev = out
	}
	parts = append(parts, fmt.Sprintf("[%s]scale=trunc(iw/2)*2:trunc(ih/2)*2,format=yuv420p[vout]", prev))

	if a := tl.Audio(); a != nil {
		parts = append(parts, fmt.Sprintf("[%d:a]%s[aout]", len(segs), audioChain(*a)))
	}
	return strings.Join(parts, ";")
}

func segmentFades(s timeline.Segment) []string {
	var out []string
	if s.CrossFadeIn > 0 {
		out = append(out, fmt.Sprintf("fade=t=in:st=0:d=%s:alpha=1", fmtSeconds(s.CrossFadeIn)))
	}
	if s.FadeIn > 0 {
		out = append(out, fmt.Sprintf("fade=t=in:st=0:d=%s", fmtSeconds(s.FadeIn)))
	}
	if s.FadeOut > 0 {
		out = append(out, fmt.Sprintf("fade=t=out:st=%s:d=%s", fmtSeconds(s.Duration-s.FadeOut), fmtSeconds(s.FadeOut)))
	}
	return out
}

func audioChain(a timeline.Audio) string {
	chain := []string{
		fmt.Sprintf("atrim=0:%s", fmtSeconds(a.Duration)),
		"asetpts=PTS-STARTPTS",
	}
	if a.FadeIn > 0 {
		chain = append(chain, fmt.Sprintf("afade=t=in:st=0:d=%s", fmtSeconds(a.FadeIn)))
	}
	if a.FadeOut > 0 {
		chain = append(chain, fmt.Sprintf("afade=t=out:st=%s:d=%s", fmtSeconds(max(a.Duration-a.FadeOut, 0)), fmtSeconds(a.FadeOut)))
	}
	return strings.Join(chain, ",")
}
