// Package service is the HTTP transport to the remote inference service.
// Requests are form-encoded POSTs; the response contract lives in codec.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pzhang-hci/holospeak/internal/codec"
)

// Endpoint paths, relative to the configured host.
const (
	DetectPath    = "/makesound"
	SentencesPath = "/makesentences"
	FrequencyPath = "/updatefrequency"
)

// DefaultTimeout bounds one request. The reference client tolerated requests
// of nearly 1000s; that is an upper bound on patience, not a target.
const DefaultTimeout = 90 * time.Second

// HostSource yields the current service base URL. The config layer
// implements it so host changes take effect without rebuilding the client.
type HostSource interface {
	ServiceURL() string
}

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Code)
}

// Client talks to the inference service.
type Client struct {
	hosts  HostSource
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a service client. A non-positive timeout falls back to
// DefaultTimeout; a nil logger is replaced with a no-op one.
func NewClient(hosts HostSource, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		hosts:  hosts,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// DetectObject uploads an image for object detection and sentence
// generation, returning the raw response body on a 2xx reply.
func (c *Client) DetectObject(ctx context.Context, fields map[string]string) ([]byte, error) {
	return c.postForm(ctx, DetectPath, fields)
}

// MakeSentences requests fresh sentences for the current object and keyword
// selection, returning the raw response body on a 2xx reply.
func (c *Client) MakeSentences(ctx context.Context, fields map[string]string) ([]byte, error) {
	return c.postForm(ctx, SentencesPath, fields)
}

// UpdateFrequency reports that a sentence was spoken. The response body is
// ignored; callers treat this as fire-and-forget telemetry.
func (c *Client) UpdateFrequency(ctx context.Context, sentence string) error {
	_, err := c.postForm(ctx, FrequencyPath, map[string]string{"sentence": sentence})
	return err
}

// Probe checks that the configured host is reachable. The service has no
// index page, so a 404 from "/" still counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	url := c.hosts.ServiceURL() + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return &StatusError{Endpoint: "/", Code: resp.StatusCode}
}

func (c *Client) postForm(ctx context.Context, path string, fields map[string]string) ([]byte, error) {
	url := c.hosts.ServiceURL() + path
	body := codec.BuildForm(fields)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	c.logger.Debug("service request",
		zap.String("endpoint", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode}
	}
	return data, nil
}
