// Package pipeline sequences transcription, classification, extraction,
// normalization and record creation for one utterance, and assembles the
// response envelope.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voice-leads-go/internal/airtable"
	"voice-leads-go/internal/intent"
	"voice-leads-go/internal/lead"
	"voice-leads-go/internal/logger"
	"voice-leads-go/internal/observability/metrics"
)

// Transcriber converts audio into utterance text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Classifier decides whether an utterance describes a new lead.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (intent.Classification, error)
}

// Extractor maps an utterance onto the fixed lead schema.
type Extractor interface {
	Extract(ctx context.Context, utterance string) (lead.ExtractedFields, error)
}

// RecordCreator performs the single create call against the record store.
type RecordCreator interface {
	CreateRecord(ctx context.Context, l lead.NormalizedLead, transcript string) (airtable.Record, error)
}

// Journal receives persisted leads, best effort.
type Journal interface {
	Append(rec airtable.Record, l lead.NormalizedLead) error
}

// Result is the response envelope for one run.
type Result struct {
	Success         bool                 `json:"success"`
	Outcome         Outcome              `json:"outcome"`
	LeadName        *string              `json:"lead_name"`
	ExtractedFields *lead.NormalizedLead `json:"extracted_fields"`
	Transcription   *string              `json:"transcription"`
	RecordID        *string              `json:"record_id"`
	AirtableURL     *string              `json:"airtable_url"`
	Message         string               `json:"message"`
	FailedStage     Stage                `json:"failed_stage,omitempty"`

	// Err carries the stage error for transport-level status mapping.
	Err error `json:"-"`
}

// PreviewResult is the dry-run answer: what a run would create, without
// creating it.
type PreviewResult struct {
	Success         bool                 `json:"success"`
	Skipped         bool                 `json:"skipped"`
	LeadName        *string              `json:"lead_name"`
	ExtractedFields *lead.NormalizedLead `json:"extracted_fields"`
	Transcription   *string              `json:"transcription"`
	Message         string               `json:"message"`

	Err error `json:"-"`
}

// Config wires the pipeline's collaborators. Metrics and Journal may be nil.
type Config struct {
	Transcriber   Transcriber
	Classifier    Classifier
	Extractor     Extractor
	RecordCreator RecordCreator
	Journal       Journal
	Metrics       *metrics.PipelineMetrics
	Logger        *logger.Logger
}

type Pipeline struct {
	transcriber Transcriber
	classifier  Classifier
	extractor   Extractor
	creator     RecordCreator
	journal     Journal
	metrics     *metrics.PipelineMetrics
	log         *logger.Logger
}

func New(cfg Config) *Pipeline {
	log := cfg.Logger
	if log == nil {
		log = logger.New("local", "info")
	}
	return &Pipeline{
		transcriber: cfg.Transcriber,
		classifier:  cfg.Classifier,
		extractor:   cfg.Extractor,
		creator:     cfg.RecordCreator,
		journal:     cfg.Journal,
		metrics:     cfg.Metrics,
		log:         log,
	}
}

// Run is the audio entry point: transcription first, then the shared tail.
func (p *Pipeline) Run(ctx context.Context, audio []byte, mimeType string) Result {
	start := time.Now()
	log := p.log.WithRun(uuid.NewString()).WithField("entry", "audio")

	text, err := p.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		res := p.fail(log, Result{}, StageTranscription, err)
		p.metrics.ObserveRun(string(res.Outcome), "audio", time.Since(start).Seconds())
		return res
	}
	log.WithField("transcript_len", len(text)).Info("transcribed")

	res := p.runFromText(ctx, log, text)
	p.metrics.ObserveRun(string(res.Outcome), "audio", time.Since(start).Seconds())
	return res
}

// RunText is the text entry point for already-transcribed utterances; it
// skips transcription entirely.
func (p *Pipeline) RunText(ctx context.Context, utterance string) Result {
	start := time.Now()
	log := p.log.WithRun(uuid.NewString()).WithField("entry", "text")

	res := p.runFromText(ctx, log, strings.TrimSpace(utterance))
	p.metrics.ObserveRun(string(res.Outcome), "text", time.Since(start).Seconds())
	return res
}

// Persist is the confirm entry point: fields were already extracted and
// reviewed, so only the normalization gate and the create call run.
func (p *Pipeline) Persist(ctx context.Context, l lead.NormalizedLead, transcript string) Result {
	start := time.Now()
	log := p.log.WithRun(uuid.NewString()).WithField("entry", "confirm")

	res := Result{}
	if transcript != "" {
		res.Transcription = &transcript
	}
	if strings.TrimSpace(l.CustomerName) == "" {
		out := p.fail(log, res, StageNormalization, fmt.Errorf("%w: customer_name", lead.ErrMissingRequiredField))
		p.metrics.ObserveRun(string(out.Outcome), "confirm", time.Since(start).Seconds())
		return out
	}
	res.ExtractedFields = &l
	res.LeadName = &l.CustomerName

	out := p.persist(ctx, log, res, l, transcript, "")
	p.metrics.ObserveRun(string(out.Outcome), "confirm", time.Since(start).Seconds())
	return out
}

// Preview runs the audio path up to normalization and stops. Never persists.
func (p *Pipeline) Preview(ctx context.Context, audio []byte, mimeType string) PreviewResult {
	log := p.log.WithRun(uuid.NewString()).WithField("entry", "preview")

	text, err := p.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		log.WithError(err).Warn("preview transcription failed")
		return PreviewResult{Message: fmt.Sprintf("%s failed: %v", StageTranscription, err), Err: err}
	}
	return p.previewFromText(ctx, log, text)
}

// PreviewText is Preview for already-transcribed utterances.
func (p *Pipeline) PreviewText(ctx context.Context, utterance string) PreviewResult {
	log := p.log.WithRun(uuid.NewString()).WithField("entry", "preview-text")
	return p.previewFromText(ctx, log, strings.TrimSpace(utterance))
}

// runFromText is the shared tail: classify, extract, normalize, persist.
func (p *Pipeline) runFromText(ctx context.Context, log *logrus.Entry, transcript string) Result {
	res := Result{Transcription: &transcript}

	norm, failOpen, out, done := p.analyze(ctx, log, &res, transcript)
	if done {
		return out
	}

	suffix := ""
	if failOpen {
		suffix = " (classifier unavailable; treated as lead)"
	}
	return p.persist(ctx, log, res, norm, transcript, suffix)
}

// analyze covers CLASSIFIED through NORMALIZED. When done is true the run
// already reached a terminal state and out is the answer.
func (p *Pipeline) analyze(ctx context.Context, log *logrus.Entry, res *Result, transcript string) (norm lead.NormalizedLead, failOpen bool, out Result, done bool) {
	cls, err := p.classifier.Classify(ctx, transcript)
	switch {
	case err != nil:
		// Fail-open by policy: a classifier outage must not silently
		// discard real leads.
		failOpen = true
		log.WithError(err).Warn("classification unavailable, failing open")
	case !cls.IsLead:
		log.WithFields(logrus.Fields{"intent": cls.Intent, "confidence": cls.Confidence}).Info("not a lead, skipping")
		res.Outcome = OutcomeSkipped
		res.Message = skipMessage(cls)
		return norm, false, *res, true
	default:
		log.WithFields(logrus.Fields{"intent": cls.Intent, "confidence": cls.Confidence}).Info("classified as lead")
	}

	fields, err := p.extractor.Extract(ctx, transcript)
	if err != nil {
		return norm, failOpen, p.fail(log, *res, StageExtraction, err), true
	}

	norm, err = lead.Normalize(fields)
	if err != nil {
		return norm, failOpen, p.fail(log, *res, StageNormalization, err), true
	}
	res.ExtractedFields = &norm
	res.LeadName = &norm.CustomerName
	return norm, failOpen, Result{}, false
}

// persist covers the single create call plus the best-effort journal append.
// Callers guarantee it runs at most once per run.
func (p *Pipeline) persist(ctx context.Context, log *logrus.Entry, res Result, l lead.NormalizedLead, transcript, msgSuffix string) Result {
	rec, err := p.creator.CreateRecord(ctx, l, transcript)
	if err != nil {
		// Transcription and fields stay in the envelope for diagnosis.
		return p.fail(log, res, StagePersistence, err)
	}

	res.Success = true
	res.Outcome = OutcomePersisted
	res.RecordID = &rec.ID
	res.AirtableURL = &rec.URL
	res.Message = fmt.Sprintf("Created lead for %s%s", l.CustomerName, msgSuffix)
	log.WithField("record_id", rec.ID).Info("lead persisted")

	if p.journal != nil {
		if err := p.journal.Append(rec, l); err != nil {
			log.WithError(err).Warn("journal append failed")
		}
	}
	return res
}

func (p *Pipeline) previewFromText(ctx context.Context, log *logrus.Entry, transcript string) PreviewResult {
	res := Result{Transcription: &transcript}
	norm, _, out, done := p.analyze(ctx, log, &res, transcript)
	if done {
		if out.Outcome == OutcomeSkipped {
			return PreviewResult{Skipped: true, Transcription: &transcript, Message: out.Message}
		}
		return PreviewResult{Transcription: &transcript, Message: out.Message, Err: out.Err}
	}
	return PreviewResult{
		Success:         true,
		LeadName:        &norm.CustomerName,
		ExtractedFields: &norm,
		Transcription:   &transcript,
		Message:         "Ready to create lead. Review and confirm.",
	}
}

func (p *Pipeline) fail(log *logrus.Entry, res Result, stage Stage, err error) Result {
	log.WithField("stage", string(stage)).WithField("error", err.Error()).Warn("run failed")
	p.metrics.ObserveFailure(string(stage))

	res.Success = false
	res.Outcome = OutcomeFailed
	res.FailedStage = stage
	res.Message = fmt.Sprintf("%s failed: %v", stage, err)
	res.Err = err
	return res
}

func skipMessage(cls intent.Classification) string {
	msg := fmt.Sprintf("Utterance classified as %q, not a new lead.", cls.Intent)
	if cls.Reason != "" {
		msg += " " + cls.Reason
	}
	return msg
}
