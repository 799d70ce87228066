package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driving"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.DiagnosisService = (*Orchestrator)(nil)

// DefaultStageTimeout bounds each workflow stage.
const DefaultStageTimeout = 3 * time.Minute

// Evidence references for conclusions carried over from earlier stages.
const (
	refStageHypothesis = "stage:hypothesis"
	refStageChallenge  = "stage:challenge"
)

// WorkflowConfig tunes the diagnostic workflow.
type WorkflowConfig struct {
	// StageTimeout bounds each stage including its retrieval. Zero means
	// DefaultStageTimeout.
	StageTimeout time.Duration

	// MaxTokens caps generation length per stage.
	MaxTokens int

	// Temperature is the generation temperature for all stages.
	Temperature float64
}

// Orchestrator runs the three-stage diagnostic workflow: hypothesis
// generation, critical challenge, final clinical reasoning. Only the
// reasoning stage is mandatory; the earlier stages degrade gracefully so a
// flaky collaborator costs report quality, not the whole session.
type Orchestrator struct {
	retrieval driving.RetrievalService
	reasoner  driven.ReasoningService
	archive   driven.SessionStore
	cfg       WorkflowConfig
}

// NewOrchestrator creates an orchestrator. The archive is optional; pass
// nil to skip session archiving.
func NewOrchestrator(
	retrieval driving.RetrievalService,
	reasoner driven.ReasoningService,
	archive driven.SessionStore,
	cfg WorkflowConfig,
) *Orchestrator {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	return &Orchestrator{
		retrieval: retrieval,
		reasoner:  reasoner,
		archive:   archive,
		cfg:       cfg,
	}
}

func (o *Orchestrator) generateOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}
}

// Diagnose runs the full workflow for one patient case. The session is
// archived best-effort on every terminal state.
func (o *Orchestrator) Diagnose(ctx context.Context, patientCase domain.PatientCase) (*domain.DiagnosisReport, error) {
	session := &domain.DiagnosticSession{
		ID:        uuid.New().String(),
		Case:      patientCase,
		State:     domain.StageInit,
		StartedAt: time.Now().UTC(),
	}

	logger.Section("Diagnostic Session")
	logger.Info("Session %s: %s", session.ID, patientCase.Summary())

	// Init validates before any collaborator call.
	if err := patientCase.Validate(); err != nil {
		o.finish(ctx, session, domain.StageFailed)
		return nil, err
	}

	var (
		hypothesis domain.HypothesisOutput
		challenge  domain.ChallengeOutput
		knownRefs  = map[string]bool{}
	)

	// Hypothesis stage: optional, degrades on failure.
	session.State = domain.StageHypothesis
	hypoResult, _ := o.timedStage(ctx, domain.StageHypothesis, func(ctx context.Context) (domain.RetrievedContext, string, int, error) {
		out, rc, attempts, err := o.runHypothesis(ctx, patientCase)
		if err != nil {
			return rc, "", attempts, err
		}
		hypothesis = out
		return rc, fmt.Sprintf("%d candidate(s)", len(out.Candidates)), attempts, nil
	})
	session.Results = append(session.Results, hypoResult)
	if hypoResult.Succeeded {
		knownRefs[refStageHypothesis] = true
	}

	// Challenge stage: optional, reviews whatever candidates exist.
	session.State = domain.StageChallenge
	chalResult, _ := o.timedStage(ctx, domain.StageChallenge, func(ctx context.Context) (domain.RetrievedContext, string, int, error) {
		out, rc, attempts, err := o.runChallenge(ctx, patientCase, hypothesis.Candidates)
		if err != nil {
			return rc, "", attempts, err
		}
		challenge = out
		return rc, fmt.Sprintf("%d revised candidate(s), %d concern(s)", len(out.RevisedCandidates), len(out.QualityConcerns)), attempts, nil
	})
	session.Results = append(session.Results, chalResult)
	if chalResult.Succeeded {
		knownRefs[refStageChallenge] = true
	}

	// The reasoning stage sees the best candidate list available.
	candidates := hypothesis.Candidates
	if chalResult.Succeeded {
		candidates = challenge.RevisedCandidates
	}

	// Every retrieved chunk so far is citable evidence.
	for _, r := range session.Results {
		for _, id := range r.Context.ChunkIDs() {
			knownRefs[id] = true
		}
	}

	// Reasoning stage: mandatory.
	var reasoning domain.ReasoningOutput
	session.State = domain.StageReasoning
	reasonResult, reasonErr := o.timedStage(ctx, domain.StageReasoning, func(ctx context.Context) (domain.RetrievedContext, string, int, error) {
		out, rc, attempts, err := o.runReasoning(ctx, patientCase, candidates, knownRefs)
		if err != nil {
			return rc, "", attempts, err
		}
		reasoning = out
		return rc, "primary: " + out.Primary.Name, attempts, nil
	})
	session.Results = append(session.Results, reasonResult)

	if reasonErr != nil {
		o.finish(ctx, session, domain.StageFailed)
		return nil, fmt.Errorf("%w: %w", domain.ErrDiagnosisFailed, reasonErr)
	}

	report := o.buildReport(session, hypothesis, challenge, reasoning, hypoResult, chalResult)
	session.Report = report
	o.finish(ctx, session, domain.StageComplete)

	logger.Info("Session %s complete: %s (consensus %s)", session.ID, report.Diagnosis.Primary.Name, report.ConsensusLevel)
	return report, nil
}

// timedStage runs one stage under the per-stage timeout and records its
// outcome. The stage frames its own payload; the result carries the
// retrieved context, duration and a one-line summary. A failure comes back
// as a *domain.StageError naming the stage and the attempts used.
func (o *Orchestrator) timedStage(
	ctx context.Context,
	stage domain.Stage,
	fn func(ctx context.Context) (domain.RetrievedContext, string, int, error),
) (domain.StageResult, error) {
	logger.Section(fmt.Sprintf("Stage: %s", stage))
	start := time.Now()

	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
	defer cancel()

	rc, summary, attempts, err := fn(stageCtx)

	result := domain.StageResult{
		Stage:     stage,
		Succeeded: err == nil,
		Context:   rc,
		Duration:  time.Since(start),
		Summary:   summary,
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", domain.ErrStageTimeout, o.cfg.StageTimeout)
		}
		stageErr := &domain.StageError{Stage: stage, Err: err, Attempts: attempts}
		result.Error = stageErr.Error()
		logger.Warn("Stage %s failed in %s: %v", stage, result.Duration.Round(time.Millisecond), err)
		return result, stageErr
	}
	logger.Info("Stage %s done in %s: %s", stage, result.Duration.Round(time.Millisecond), summary)
	return result, nil
}

// buildReport aggregates the stage payloads into the final report.
func (o *Orchestrator) buildReport(
	session *domain.DiagnosticSession,
	hypothesis domain.HypothesisOutput,
	challenge domain.ChallengeOutput,
	reasoning domain.ReasoningOutput,
	hypoResult, chalResult domain.StageResult,
) *domain.DiagnosisReport {
	report := &domain.DiagnosisReport{
		SessionID:      session.ID,
		PatientSummary: session.Case.Summary(),
		GeneratedAt:    time.Now().UTC(),
		Elapsed:        time.Since(session.StartedAt),
		Diagnosis:      reasoning,
	}

	report.Process = domain.ProcessCounts{
		HypothesesGenerated:       len(hypothesis.Candidates),
		CandidatesRevised:         len(challenge.RevisedCandidates),
		QualityConcernsIdentified: len(challenge.QualityConcerns),
		DocumentsConsulted:        countDistinctSources(session.Results),
	}

	for _, r := range []domain.StageResult{hypoResult, chalResult} {
		if !r.Succeeded {
			report.Degraded = true
			report.Degradations = append(report.Degradations, domain.DegradationRecord{
				Stage:  r.Stage,
				Reason: r.Error,
			})
		}
	}

	report.ConsensusLevel = assessConsensus(chalResult.Succeeded, len(challenge.QualityConcerns), reasoning.OverallConfidence)
	return report
}

// assessConsensus grades agreement across the stages. Few challenge
// concerns plus a confident conclusion means strong consensus; a skipped
// challenge stage caps consensus at medium because nothing scrutinised the
// hypotheses.
func assessConsensus(challenged bool, concerns int, confidence domain.Confidence) domain.Confidence {
	if !challenged {
		if confidence == domain.ConfidenceLow {
			return domain.ConfidenceLow
		}
		return domain.ConfidenceMedium
	}
	switch {
	case concerns == 0 && confidence == domain.ConfidenceHigh:
		return domain.ConfidenceHigh
	case concerns <= 2 && (confidence == domain.ConfidenceHigh || confidence == domain.ConfidenceMedium):
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// countDistinctSources counts corpus documents consulted across all stages.
func countDistinctSources(results []domain.StageResult) int {
	seen := map[string]bool{}
	for _, r := range results {
		for _, src := range r.Context.Sources() {
			seen[src] = true
		}
	}
	return len(seen)
}

// finish moves the session to a terminal state and archives it best-effort.
// Archive failures are logged, never surfaced: the report already exists.
func (o *Orchestrator) finish(ctx context.Context, session *domain.DiagnosticSession, state domain.Stage) {
	session.State = state
	session.FinishedAt = time.Now().UTC()

	if o.archive == nil {
		return
	}
	if err := o.archive.Archive(ctx, session); err != nil {
		logger.Warn("Session %s archive failed: %v", session.ID, err)
	}
}
