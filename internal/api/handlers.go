package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-leads-go/internal/lead"
	"voice-leads-go/internal/logger"
	"voice-leads-go/internal/pipeline"
	"voice-leads-go/internal/transcriber"
)

// Handler exposes the pipeline plus the stage-level diagnostic endpoints.
type Handler struct {
	pipeline      *pipeline.Pipeline
	transcriber   pipeline.Transcriber
	classifier    pipeline.Classifier
	extractor     pipeline.Extractor
	log           *logger.Logger
	timeout       time.Duration
	maxAudioBytes int64
}

type HandlerConfig struct {
	Pipeline      *pipeline.Pipeline
	Transcriber   pipeline.Transcriber
	Classifier    pipeline.Classifier
	Extractor     pipeline.Extractor
	Logger        *logger.Logger
	Timeout       time.Duration
	MaxAudioBytes int64
}

func NewHandler(cfg HandlerConfig) *Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxBytes := cfg.MaxAudioBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Handler{
		pipeline:      cfg.Pipeline,
		transcriber:   cfg.Transcriber,
		classifier:    cfg.Classifier,
		extractor:     cfg.Extractor,
		log:           cfg.Logger,
		timeout:       timeout,
		maxAudioBytes: maxBytes,
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "voice-leads-go",
		"status":  "running",
	})
}

// VoiceToLead runs the full audio pipeline: transcribe, classify, extract,
// normalize, create.
func (h *Handler) VoiceToLead(w http.ResponseWriter, r *http.Request) {
	audio, mimeType, ok := h.readAudio(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	res := h.pipeline.Run(ctx, audio, mimeType)
	writeJSON(w, statusFor(res), res)
}

type textRequest struct {
	UtteranceText string `json:"utterance_text"`
	// Transcription is the dictation-webhook alias for utterance_text.
	Transcription string `json:"transcription"`
}

func (t textRequest) text() string {
	if s := strings.TrimSpace(t.UtteranceText); s != "" {
		return s
	}
	return strings.TrimSpace(t.Transcription)
}

// TextWebhook runs the text path: identical pipeline, transcription skipped.
func (h *Handler) TextWebhook(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readText(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	res := h.pipeline.RunText(ctx, req)
	writeJSON(w, statusFor(res), res)
}

// PreviewLead runs the audio path up to normalization without creating a
// record, so the operator can review before confirming.
func (h *Handler) PreviewLead(w http.ResponseWriter, r *http.Request) {
	audio, mimeType, ok := h.readAudio(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	res := h.pipeline.Preview(ctx, audio, mimeType)
	status := http.StatusOK
	if res.Err != nil {
		status = statusForErr(res.Err)
	}
	writeJSON(w, status, res)
}

type confirmRequest struct {
	Transcription   string              `json:"transcription"`
	ExtractedFields lead.NormalizedLead `json:"extracted_fields"`
}

// ConfirmLead creates a record from previously previewed fields.
func (h *Handler) ConfirmLead(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	res := h.pipeline.Persist(ctx, req.ExtractedFields, strings.TrimSpace(req.Transcription))
	writeJSON(w, statusFor(res), res)
}

// TranscribeOnly exposes the transcription stage for isolated testing.
func (h *Handler) TranscribeOnly(w http.ResponseWriter, r *http.Request) {
	audio, mimeType, ok := h.readAudio(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	text, err := h.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		http.Error(w, err.Error(), statusForErr(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcription": text})
}

// TestClassify exposes the classification stage for isolated testing.
func (h *Handler) TestClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readText(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	cls, err := h.classifier.Classify(ctx, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

// TestExtract exposes the extraction stage for isolated testing.
func (h *Handler) TestExtract(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readText(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.runContext(r)
	defer cancel()

	fields, err := h.extractor.Extract(ctx, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// runContext detaches the run from client cancellation: a disconnecting
// caller must not interrupt an in-flight external call or orphan a
// half-billed run. Only the configured pipeline timeout applies.
func (h *Handler) runContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
}

func (h *Handler) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes)
	if err := r.ParseMultipartForm(h.maxAudioBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return nil, "", false
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "missing audio file", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read audio", http.StatusBadRequest)
		return nil, "", false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = r.FormValue("mime_type")
	}
	return audio, mimeType, true
}

func (h *Handler) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	text := req.text()
	if text == "" {
		http.Error(w, "missing utterance_text", http.StatusBadRequest)
		return "", false
	}
	return text, true
}

func statusFor(res pipeline.Result) int {
	if res.Outcome != pipeline.OutcomeFailed {
		return http.StatusOK
	}
	return statusForErr(res.Err)
}

func statusForErr(err error) int {
	switch {
	case errors.Is(err, transcriber.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, transcriber.ErrEmptyTranscript),
		errors.Is(err, lead.ErrMissingRequiredField):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
