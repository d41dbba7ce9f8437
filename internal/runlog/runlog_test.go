package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteAppendsLines(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}

	if err := l.Write(EventOpen, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := l.Write(EventTimeCost, "1205ms"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data_20240315.txt"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if lines[0] != "2024-03-15 10:30:00,1," {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "2024-03-15 10:30:00,40,1205ms" {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestDailyRotationByFilename(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	day := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	l.now = func() time.Time { return day }
	l.Write(EventClose, "")

	day = day.Add(2 * time.Minute) // crosses midnight
	l.Write(EventOpen, "")

	for _, name := range []string{"data_20240315.txt", "data_20240316.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}
