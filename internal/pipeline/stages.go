package pipeline

// Stage identifies which part of a run produced an error. Every error in
// the taxonomy is attributed to exactly one stage.
type Stage string

const (
	StageTranscription  Stage = "transcription"
	StageClassification Stage = "classification"
	StageExtraction     Stage = "extraction"
	StageNormalization  Stage = "normalization"
	StagePersistence    Stage = "persistence"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	// OutcomePersisted means exactly one record was created.
	OutcomePersisted Outcome = "persisted"

	// OutcomeSkipped means the classifier decided the utterance is not a
	// lead. A correct, non-erroneous result.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means a stage errored and the run aborted. No record
	// exists; no stage before persistence has durable effects.
	OutcomeFailed Outcome = "failed"
)
