package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/ports"
)

const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	audioBitrate      = "192k"
	stderrTail        = 4096
	probeTimeout      = 30 * time.Second
)

type Adapter struct {
	ffmpeg string
	logger *slog.Logger
	probe  func(path string, timeout time.Duration) (string, error)
}

func New(ffmpegPath string, logger *slog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{
		ffmpeg: ffmpegPath,
		logger: logging.Component(logger, "ffmpeg"),
		probe: func(path string, timeout time.Duration) (string, error) {
			return ffmpeggo.ProbeWithTimeout(path, timeout, ffmpeggo.KwArgs{})
		},
	}
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// ProbeDuration returns the container duration, falling back to the longest
// stream when the container does not report one. ffprobe is killed after
// probeTimeout or the ctx deadline, whichever comes first; a cancelled ctx
// returns at once.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := probeTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(dl))
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := a.probe(path, timeout)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return 0, fmt.Errorf("ffprobe %s: %w", path, r.err)
		}
		return parseProbeDuration([]byte(r.out))
	}
}

func parseProbeDuration(b []byte) (time.Duration, error) {
	var pr probeResult
	if err := json.Unmarshal(b, &pr); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if sec, err := strconv.ParseFloat(strings.TrimSpace(pr.Format.Duration), 64); err == nil {
		return seconds(sec), nil
	}
	var best float64
	for _, s := range pr.Streams {
		if sec, err := strconv.ParseFloat(strings.TrimSpace(s.Duration), 64); err == nil && sec > best {
			best = sec
		}
	}
	return seconds(best), nil
}

// Encode compiles the timeline into a filter graph and runs ffmpeg.
func (a *Adapter) Encode(ctx context.Context, req ports.EncodeRequest) error {
	args, err := buildEncodeArgs(req)
	if err != nil {
		return err
	}
	total := req.Timeline.Duration()
	a.logger.Debug("running ffmpeg encode", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	if req.TempDir != "" {
		cmd.Env = append(os.Environ(), "TMPDIR="+req.TempDir, "TMP="+req.TempDir, "TEMP="+req.TempDir)
	}
	var stderr tailBuffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	readProgress(stdout, func(done time.Duration) {
		if req.Progress != nil {
			req.Progress(min(done, total), total)
		}
	})
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w\n%s", err, stderr.String())
	}
	if req.Progress != nil {
		req.Progress(total, total)
	}
	return nil
}

func (a *Adapter) run(ctx context.Context, op string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", op, err, string(b))
	}
	return nil
}

// readProgress consumes `-progress` key=value blocks and reports out_time.
func readProgress(r io.Reader, report func(time.Duration)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			us, err := strconv.ParseInt(val, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			report(time.Duration(us) * time.Microsecond)
		}
	}
}

type tailBuffer struct{ b bytes.Buffer }

func (t *tailBuffer) Write(p []byte) (int, error) {
	n, _ := t.b.Write(p)
	if over := t.b.Len() - stderrTail; over > 0 {
		t.b.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string { return strings.TrimSpace(t.b.String()) }

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
