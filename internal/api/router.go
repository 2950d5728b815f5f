package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-leads-go/internal/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger             *logger.Logger
	Handler            *Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// NewRouter builds the chi router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}

	h := cfg.Handler

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/voice-to-lead", h.VoiceToLead)
		r.Post("/preview-lead", h.PreviewLead)
		r.Post("/confirm-lead", h.ConfirmLead)
		r.Post("/transcribe", h.TranscribeOnly)
	})

	// Text path for dictation webhooks (already-transcribed utterances).
	r.Post("/webhook/text", h.TextWebhook)

	// Stage diagnostics.
	r.Post("/test/classify", h.TestClassify)
	r.Post("/test/extract", h.TestExtract)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
