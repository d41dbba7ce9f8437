package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pzhang-hci/holospeak/internal/config"
)

// fileCapture stands in for a camera on a development host: the "photo"
// command points it at an image file, and the next capture reads that file.
type fileCapture struct {
	mu   sync.Mutex
	path string
}

func newFileCapture() *fileCapture {
	return &fileCapture{}
}

// SetSource selects the image file the next capture will read.
func (f *fileCapture) SetSource(path string) {
	f.mu.Lock()
	f.path = path
	f.mu.Unlock()
}

func (f *fileCapture) TakePhoto(ctx context.Context) (string, []byte, error) {
	f.mu.Lock()
	path := f.path
	f.mu.Unlock()
	if path == "" {
		return "", nil, errors.New("no image source set, use: photo <file>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading image: %w", err)
	}

	name := fmt.Sprintf("IMG_%s%s", time.Now().Format("20060102_150405"), filepath.Ext(path))
	return name, data, nil
}

// execPlayer plays audio through an external command. The command receives
// the file path as its final argument and is expected to block until the
// clip ends.
type execPlayer struct {
	argv []string
}

func newExecPlayer() *execPlayer {
	if cmd := os.Getenv("HOLOSPEAK_PLAYER"); cmd != "" {
		return &execPlayer{argv: strings.Fields(cmd)}
	}
	return &execPlayer{argv: []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}}
}

func (p *execPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string(nil), p.argv[1:]...), path)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playing %s: %w", path, err)
	}
	return nil
}

// voiceSettings adapts the static settings file to the voice control
// interface. A GUI host would back this with live sliders instead.
type voiceSettings struct {
	s *config.Settings
}

func (v voiceSettings) Voice() string   { return v.s.Voice }
func (v voiceSettings) Rate() float64   { return v.s.Rate }
func (v voiceSettings) Volume() float64 { return v.s.Volume }
