package domain

import "time"

// Stage identifies a step in the diagnostic workflow.
type Stage string

// Workflow stages in execution order, plus the two terminal states.
// Transitions only move forward; Failed is absorbing.
const (
	StageInit       Stage = "init"
	StageHypothesis Stage = "hypothesis"
	StageChallenge  Stage = "challenge"
	StageReasoning  Stage = "reasoning"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Next returns the stage that follows s in the forward path.
// Terminal stages return themselves.
func (s Stage) Next() Stage {
	switch s {
	case StageInit:
		return StageHypothesis
	case StageHypothesis:
		return StageChallenge
	case StageChallenge:
		return StageReasoning
	case StageReasoning:
		return StageComplete
	default:
		return s
	}
}

// Mandatory reports whether failure of this stage fails the whole session.
// Only the reasoning stage is mandatory; earlier stages degrade gracefully.
func (s Stage) Mandatory() bool {
	return s == StageReasoning
}

// StageResult records the outcome of one workflow stage.
type StageResult struct {
	// Stage names the stage this result belongs to.
	Stage Stage `json:"stage"`

	// Succeeded is true when the stage produced a usable payload.
	Succeeded bool `json:"succeeded"`

	// Error describes the failure when Succeeded is false.
	Error string `json:"error,omitempty"`

	// Context is the retrieved literature the stage consulted.
	Context RetrievedContext `json:"context"`

	// Duration is how long the stage took, including retrieval.
	Duration time.Duration `json:"duration"`

	// Summary is a one-line description of what the stage produced.
	Summary string `json:"summary,omitempty"`
}

// DiagnosticSession is the per-request record of one diagnosis workflow.
// It is created per incoming case, mutated only by the orchestrator, and
// archived once the report is emitted.
type DiagnosticSession struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Case is the patient case the session diagnoses.
	Case PatientCase `json:"case"`

	// State is the current workflow stage.
	State Stage `json:"state"`

	// Results holds stage outcomes in execution order.
	Results []StageResult `json:"results"`

	// Report is the final aggregated output; nil until the session completes.
	Report *DiagnosisReport `json:"report,omitempty"`

	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session reached a terminal state.
	FinishedAt time.Time `json:"finished_at"`
}

// Result returns the recorded result for a stage, or nil if it never ran.
func (s *DiagnosticSession) Result(stage Stage) *StageResult {
	for i := range s.Results {
		if s.Results[i].Stage == stage {
			return &s.Results[i]
		}
	}
	return nil
}
