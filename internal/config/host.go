// Package config holds the device's persistent configuration: the service
// host file and the settings file with voice defaults and data directories.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultHostPort is used when no host has ever been configured.
const DefaultHostPort = "169.254.176.4:8000"

// hostFileName is the single-line host:port file, no scheme.
const hostFileName = "host.ip"

// Host manages the persisted service host. It is injected into the
// orchestrator rather than read through a static accessor so tests and the
// settings flow can swap hosts explicitly.
type Host struct {
	path string

	mu      sync.RWMutex
	current string
}

// NewHost creates a host manager storing its file under dir.
func NewHost(dir string) *Host {
	return &Host{path: filepath.Join(dir, hostFileName)}
}

// Path returns the location of the host file.
func (h *Host) Path() string {
	return h.path
}

// Load reads the host file, creating it with the default on first run.
func (h *Host) Load() (string, error) {
	data, err := os.ReadFile(h.path)
	if os.IsNotExist(err) {
		if writeErr := h.write(DefaultHostPort); writeErr != nil {
			return "", writeErr
		}
		h.setCurrent(DefaultHostPort)
		return DefaultHostPort, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading host file: %w", err)
	}

	host := strings.TrimSpace(string(data))
	if host == "" {
		host = DefaultHostPort
	}
	h.setCurrent(host)
	return host, nil
}

// Reload re-reads the file, picking up external edits.
func (h *Host) Reload() (string, error) {
	return h.Load()
}

// Set persists a new host. Only the explicit confirm action calls this.
func (h *Host) Set(hostPort string) error {
	hostPort = strings.TrimSpace(hostPort)
	if err := h.write(hostPort); err != nil {
		return err
	}
	h.setCurrent(hostPort)
	return nil
}

// Current returns the cached host, loading it on first use.
func (h *Host) Current() string {
	h.mu.RLock()
	current := h.current
	h.mu.RUnlock()
	if current != "" {
		return current
	}

	host, err := h.Load()
	if err != nil {
		return DefaultHostPort
	}
	return host
}

// ServiceURL returns the base URL for requests.
func (h *Host) ServiceURL() string {
	return "http://" + h.Current()
}

func (h *Host) setCurrent(host string) {
	h.mu.Lock()
	h.current = host
	h.mu.Unlock()
}

func (h *Host) write(hostPort string) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(h.path, []byte(hostPort+"\n"), 0644); err != nil {
		return fmt.Errorf("writing host file: %w", err)
	}
	return nil
}
