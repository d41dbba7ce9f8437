package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticHost string

func (h staticHost) ServiceURL() string { return string(h) }

func TestMakeSentencesPostsForm(t *testing.T) {
	var gotPath, gotObject, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotObject = r.PostFormValue("object")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(staticHost(srv.URL), 0, nil)
	body, err := c.MakeSentences(context.Background(), map[string]string{
		"basename": "b1",
		"object":   "milk,tea",
		"keywords": "",
	})
	if err != nil {
		t.Fatalf("MakeSentences: %v", err)
	}
	if string(body) != `{}` {
		t.Errorf("unexpected body %q", body)
	}
	if gotPath != SentencesPath {
		t.Errorf("path = %q, want %q", gotPath, SentencesPath)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotObject != "milk,tea" {
		t.Errorf("object field = %q", gotObject)
	}
}

func TestNonOKStatusIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Failed to detect objects", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(staticHost(srv.URL), 0, nil)
	_, err := c.DetectObject(context.Background(), map[string]string{"data": "x"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest || statusErr.Endpoint != DetectPath {
		t.Errorf("unexpected error detail: %+v", statusErr)
	}
}

func TestUpdateFrequency(t *testing.T) {
	var gotSentence string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotSentence = r.PostFormValue("sentence")
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewClient(staticHost(srv.URL), 0, nil)
	if err := c.UpdateFrequency(context.Background(), "I want milk"); err != nil {
		t.Fatalf("UpdateFrequency: %v", err)
	}
	if gotSentence != "I want milk" {
		t.Errorf("sentence field = %q", gotSentence)
	}
}

func TestProbeTreats404AsReachable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"not found means reachable", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(staticHost(srv.URL), 0, nil)
			err := c.Probe(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNetworkErrorWrapped(t *testing.T) {
	c := NewClient(staticHost("http://127.0.0.1:1"), 0, nil)
	_, err := c.MakeSentences(context.Background(), nil)
	if err == nil {
		t.Fatal("expected network error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("network failure should not be a StatusError: %v", err)
	}
}
