// Package transcriber wraps the Whisper-compatible speech-to-text service.
package transcriber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnsupportedMedia is returned before any network call when the
	// declared mime type is not in the supported set or the payload is empty.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrEmptyTranscript is returned when the service answered 2xx but the
	// transcript is blank. Distinct from a service failure.
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrService is returned on transport failures and non-2xx responses.
	ErrService = errors.New("transcription service error")
)

// filenameByMime drives both the supported-type check and the synthetic
// filename the Whisper API uses to sniff the container format.
var filenameByMime = map[string]string{
	"audio/webm":  "audio.webm",
	"audio/ogg":   "audio.ogg",
	"audio/wav":   "audio.wav",
	"audio/x-wav": "audio.wav",
	"audio/wave":  "audio.wav",
	"audio/mpeg":  "audio.mp3",
	"audio/mp3":   "audio.mp3",
	"audio/mp4":   "audio.mp4",
	"audio/m4a":   "audio.m4a",
	"audio/x-m4a": "audio.m4a",
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

func New(baseURL, apiKey, model, language string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		language:   language,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Transcribe sends one transcription request and returns the trimmed text.
// No retries; the caller decides what a failure means.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", ErrUnsupportedMedia)
	}
	filename, ok := filenameByMime[normalizeMime(mimeType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, mimeType)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %v", ErrService, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: write audio: %v", ErrService, err)
	}
	_ = w.WriteField("model", c.model)
	if c.language != "" {
		_ = w.WriteField("language", c.language)
	}
	_ = w.WriteField("response_format", "text")
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: close form: %v", ErrService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrService, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	text := strings.TrimSpace(string(respBody))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// normalizeMime lowercases and drops parameters, so
// "audio/webm;codecs=opus" matches "audio/webm".
func normalizeMime(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}
