// Package runlog writes the append-only interaction log used for usage
// analysis. One line per event: "timestamp,eventCode,message", in daily
// files named data_YYYYMMDD.txt.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event codes. The numeric values are part of the log format consumed by
// the analysis scripts; do not renumber.
type Event int

const (
	EventOpen  Event = 1
	EventClose Event = 3

	EventClickCamera   Event = 20
	EventClickObject   Event = 21
	EventClickKeyword  Event = 22
	EventClickSentence Event = 23
	EventClickIgnore   Event = 24
	EventClickBack     Event = 25
	EventClickOption   Event = 26

	EventRequest       Event = 30
	EventImageResponse Event = 31
	EventTextResponse  Event = 32

	EventTimeCost Event = 40

	EventImageSaved Event = 50
)

// Logger appends events to the run log directory.
type Logger struct {
	dir string

	mu  sync.Mutex
	now func() time.Time // test hook
}

// New creates a run logger writing under dir, creating it if needed.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run log dir: %w", err)
	}
	return &Logger{dir: dir, now: time.Now}, nil
}

// Write appends one event line. The file is rotated daily by its
// date-stamped name, so append is all that is ever needed.
func (l *Logger) Write(event Event, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	path := filepath.Join(l.dir, fmt.Sprintf("data_%s.txt", now.Format("20060102")))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s,%d,%s\n", now.Format("2006-01-02 15:04:05"), event, message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending run log: %w", err)
	}
	return nil
}
