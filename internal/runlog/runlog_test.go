package runlog

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	ok := NewEntry("run-1", "/out/a.mp4", start, start.Add(1500*time.Millisecond), 5*time.Second, nil)
	bad := NewEntry("run-2", "/out/b.mp4", start, start.Add(time.Second), 0, errors.New("no supported images"))
	for _, e := range []Entry{ok, bad} {
		if err := Append(dir, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, skipped, err := Read(dir)
	if err != nil || skipped != 0 {
		t.Fatalf("read: %v (skipped %d)", err, skipped)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Status != StatusSuccess || got[0].DurationSeconds != 1.5 || got[0].VideoDurationSeconds != 5 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Status != StatusError || got[1].Error != "no supported images" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
	if !got[0].Start.Equal(start) {
		t.Fatalf("start = %s", got[0].Start)
	}
}

func TestAppend_OneLinePerEntry(t *testing.T) {
	dir := t.TempDir()
	e := NewEntry("r", "o.mp4", time.Now(), time.Now(), 0, errors.New("multi\nline"))
	if err := Append(dir, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	b, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(b), "\n"); n != 1 {
		t.Fatalf("expected a single line, got %d", n)
	}
	if strings.Contains(string(b), `"error":""`) {
		t.Fatalf("empty error must be omitted")
	}
}

func TestRead_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	got, _, err := Read(dir)
	if err != nil || len(got) != 0 {
		t.Fatalf("missing log: %v, %v", got, err)
	}

	content := `{"output":"a.mp4","status":"success"}` + "\n\nnot json\n" + `{"output":"b.mp4","status":"error"}` + "\n"
	if err := os.WriteFile(Path(dir), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, skipped, err := Read(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || skipped != 1 {
		t.Fatalf("got %d entries, %d skipped", len(got), skipped)
	}
}
