package transcriber

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribeRejectsUnsupportedMediaBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for unsupported media")
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "whisper-1", "en")

	cases := []struct {
		name string
		body []byte
		mime string
	}{
		{"empty payload", nil, "audio/webm"},
		{"video", []byte("x"), "video/mp4"},
		{"text", []byte("x"), "text/plain"},
		{"blank", []byte("x"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Transcribe(context.Background(), tc.body, tc.mime)
			if !errors.Is(err, ErrUnsupportedMedia) {
				t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
			}
		})
	}
}

func TestTranscribeSendsMultipartForm(t *testing.T) {
	var gotAuth, gotModel, gotFormat, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		if fhs := r.MultipartForm.File["file"]; len(fhs) == 1 {
			gotFilename = fhs[0].Filename
		}
		w.Write([]byte("  Got a call from Sarah Johnson.\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", "whisper-1", "en")
	text, err := c.Transcribe(context.Background(), []byte("fake-opus"), "audio/webm;codecs=opus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Got a call from Sarah Johnson." {
		t.Errorf("transcript not trimmed: %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: %q", gotAuth)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model: %q", gotModel)
	}
	if gotFormat != "text" {
		t.Errorf("response_format: %q", gotFormat)
	}
	if gotFilename != "audio.webm" {
		t.Errorf("filename: %q", gotFilename)
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "whisper-1", "")
	_, err := c.Transcribe(context.Background(), []byte("quiet"), "audio/wav")
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestTranscribeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "whisper-1", "en")
	_, err := c.Transcribe(context.Background(), []byte("x"), "audio/mp3")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestNormalizeMime(t *testing.T) {
	cases := map[string]string{
		"audio/webm;codecs=opus": "audio/webm",
		"AUDIO/WAV":              "audio/wav",
		" audio/ogg ":            "audio/ogg",
		"audio/mp4; foo=bar":     "audio/mp4",
	}
	for in, want := range cases {
		if got := normalizeMime(in); got != want {
			t.Errorf("normalizeMime(%q) = %q, want %q", in, got, want)
		}
	}
}
