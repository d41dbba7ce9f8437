package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHostFirstRunWritesDefault(t *testing.T) {
	dir := t.TempDir()
	h := NewHost(dir)

	host, err := h.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if host != DefaultHostPort {
		t.Errorf("host = %q, want default %q", host, DefaultHostPort)
	}

	data, err := os.ReadFile(filepath.Join(dir, "host.ip"))
	if err != nil {
		t.Fatalf("host file not created: %v", err)
	}
	if string(data) != DefaultHostPort+"\n" {
		t.Errorf("host file content = %q", data)
	}
}

func TestHostSetAndReload(t *testing.T) {
	h := NewHost(t.TempDir())

	if err := h.Set(" 10.0.0.2:9000 "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := h.Current(); got != "10.0.0.2:9000" {
		t.Errorf("Current() = %q", got)
	}
	if got := h.ServiceURL(); got != "http://10.0.0.2:9000" {
		t.Errorf("ServiceURL() = %q", got)
	}

	// External edit picked up by explicit reload.
	if err := os.WriteFile(h.Path(), []byte("10.0.0.3:8000\n"), 0644); err != nil {
		t.Fatalf("writing host file: %v", err)
	}
	host, err := h.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if host != "10.0.0.3:8000" {
		t.Errorf("Reload() = %q", host)
	}
}

func TestHostWatch(t *testing.T) {
	h := NewHost(t.TempDir())
	if _, err := h.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	changed := make(chan string, 1)
	stop, err := h.Watch(context.Background(), nil, func(host string) {
		select {
		case changed <- host:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(h.Path(), []byte("10.1.1.1:8000\n"), 0644); err != nil {
		t.Fatalf("writing host file: %v", err)
	}

	select {
	case host := <-changed:
		if host != "10.1.1.1:8000" {
			t.Errorf("watched host = %q", host)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never reported the change")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(t.TempDir())
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Voice != "male" || s.Rate != 0.5 || s.Volume != 0.5 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.RequestTimeout != 90*time.Second {
		t.Errorf("timeout default = %v", s.RequestTimeout)
	}
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "voice: female\nrate: 1.7\nvolume: -0.2\nasset_dir: /tmp/audio\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Voice != "female" {
		t.Errorf("voice = %q", s.Voice)
	}
	// Slider positions clamp to [0,1].
	if s.Rate != 1 || s.Volume != 0 {
		t.Errorf("rate = %v, volume = %v", s.Rate, s.Volume)
	}
	if s.AssetDir != "/tmp/audio" {
		t.Errorf("asset dir = %q", s.AssetDir)
	}
}

func TestLoadSettingsBadVoice(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("voice: robot\n"), 0644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	if _, err := LoadSettings(dir); err == nil {
		t.Fatal("expected error for invalid voice")
	}
}
