//go:build integration

package itest

import (
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+|-inf) dB`)

func probeDurationSeconds(mp4Path string) (float64, error) {
	return probe(mp4Path, "format=duration")
}

// probeStreamSeconds reads the duration of the first stream of kind "a" or "v".
func probeStreamSeconds(path, kind string) (float64, error) {
	return probe(path, "stream=duration", "-select_streams", kind+":0")
}

func probe(path, entries string, extra ...string) (float64, error) {
	args := append([]string{"-v", "error"}, extra...)
	args = append(args,
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := exec.Command("ffprobe", args...).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// meanVolumeDB measures the mean loudness of the audio in [start, start+dur).
// Digital silence reports -inf.
func meanVolumeDB(path string, start, dur float64) (float64, error) {
	b, err := exec.Command("ffmpeg", "-hide_banner", "-nostats",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-t", strconv.FormatFloat(dur, 'f', 3, 64),
		"-i", path,
		"-vn", "-af", "volumedetect", "-f", "null", "-",
	).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("volumedetect: %w\n%s", err, string(b))
	}
	m := meanVolumeRe.FindSubmatch(b)
	if m == nil {
		return 0, fmt.Errorf("no mean_volume in output:\n%s", string(b))
	}
	if string(m[1]) == "-inf" {
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(string(m[1]), 64)
}
