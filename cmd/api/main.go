package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-leads-go/internal/airtable"
	"voice-leads-go/internal/api"
	"voice-leads-go/internal/config"
	"voice-leads-go/internal/extract"
	"voice-leads-go/internal/intent"
	"voice-leads-go/internal/journal"
	"voice-leads-go/internal/llm"
	"voice-leads-go/internal/logger"
	"voice-leads-go/internal/observability/metrics"
	"voice-leads-go/internal/pipeline"
	"voice-leads-go/internal/transcriber"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	log.WithField("service", "voice-leads-go").Info("starting service")

	llmClient := llm.New(cfg.LLMGatewayURL, cfg.LLMAPIKey, cfg.LLMModel)
	stt := transcriber.New(cfg.TranscriberBaseURL, cfg.TranscriberAPIKey, cfg.TranscriberModel, cfg.TranscriberLanguage)
	classifier := intent.NewClassifier(llmClient)
	extractor := extract.NewExtractor(llmClient)
	store := airtable.New(cfg.AirtableBaseURL, cfg.AirtableViewURL, cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTableID)

	if cfg.StartupProbe && cfg.AirtableAPIKey != "" {
		probeRecordStore(log, store, cfg.StartupProbeMaxWait)
	}

	var book pipeline.Journal
	if cfg.JournalPath != "" {
		log.WithField("journal_path", cfg.JournalPath).Info("lead journal enabled")
		book = journal.Open(cfg.JournalPath)
	}

	p := pipeline.New(pipeline.Config{
		Transcriber:   stt,
		Classifier:    classifier,
		Extractor:     extractor,
		RecordCreator: store,
		Journal:       book,
		Metrics:       metrics.NewPipelineMetrics(nil),
		Logger:        log,
	})

	handler := api.NewHandler(api.HandlerConfig{
		Pipeline:      p,
		Transcriber:   stt,
		Classifier:    classifier,
		Extractor:     extractor,
		Logger:        log,
		Timeout:       cfg.PipelineTimeout,
		MaxAudioBytes: cfg.MaxAudioBytes,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:             log,
		Handler:            handler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

// probeRecordStore verifies the record store is reachable before serving.
// Boot-time only; pipeline runs never retry. A store that stays down is
// logged and tolerated so the service can still accept leads once the
// store recovers.
func probeRecordStore(log *logger.Logger, store *airtable.Client, maxWait time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), maxWait)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxWait

	op := func() error { return store.Ping(ctx) }
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		log.WithError(err).Warn("record store unreachable at startup; continuing")
		return
	}
	log.Info("record store reachable")
}
