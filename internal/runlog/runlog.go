// Package runlog keeps the append-only render.log written beside each
// rendered video. Each line is one JSON object.
package runlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const FileName = "render.log"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Entry struct {
	RunID                string    `json:"run_id,omitempty"`
	Start                time.Time `json:"start"`
	End                  time.Time `json:"end"`
	DurationSeconds      float64   `json:"duration_seconds"`
	VideoDurationSeconds float64   `json:"video_duration_seconds"`
	Output               string    `json:"output"`
	Status               string    `json:"status"`
	Error                string    `json:"error,omitempty"`
}

// NewEntry fills the timing fields from start, end and the rendered length.
func NewEntry(runID, output string, start, end time.Time, video time.Duration, err error) Entry {
	e := Entry{
		RunID:                runID,
		Start:                start.UTC(),
		End:                  end.UTC(),
		DurationSeconds:      round3(end.Sub(start).Seconds()),
		VideoDurationSeconds: round3(video.Seconds()),
		Output:               output,
		Status:               StatusSuccess,
	}
	if err != nil {
		e.Status = StatusError
		e.Error = err.Error()
	}
	return e
}

func Path(dir string) string { return filepath.Join(dir, FileName) }

// Append writes e as a single line to dir/render.log.
func Append(dir string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal run log entry: %w", err)
	}
	f, err := os.OpenFile(Path(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write run log: %w", err)
	}
	return f.Close()
}

// Read returns the entries of dir/render.log oldest first. A missing log is
// empty. Lines that are not valid entries are skipped and counted.
func Read(dir string) ([]Entry, int, error) {
	f, err := os.Open(Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var (
		out     []Entry
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return out, skipped, fmt.Errorf("read run log: %w", err)
	}
	return out, skipped, nil
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
