package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/logger"
	"github.com/custodia-labs/cardiomind/internal/retry"
)

// stripFences removes a markdown code fence wrapper if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeStagePayload parses a collaborator response into the stage's typed
// payload. A response that does not decode is a content failure, not a
// transport failure, so it is never marked transient.
func decodeStagePayload(response string, out any) error {
	cleaned := stripFences(response)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// generate calls the reasoning service. Transport failures are retried up
// to maxAttempts in total; content failures surface immediately. The
// returned count is the number of attempts actually used. Failures keep the
// underlying error in the chain so callers can classify timeouts.
func generate(
	ctx context.Context,
	reasoner driven.ReasoningService,
	prompt string,
	opts driven.GenerateOptions,
	maxAttempts int,
) (string, int, error) {
	var response string
	attempts := 0
	err := retry.Do(ctx, retry.Policy{MaxAttempts: maxAttempts}, func(ctx context.Context) error {
		attempts++
		var genErr error
		response, genErr = reasoner.Generate(ctx, prompt, opts)
		return genErr
	})
	if err != nil {
		return "", attempts, fmt.Errorf("%w: %w", domain.ErrReasoningUnavailable, err)
	}
	return response, attempts, nil
}

// runHypothesis retrieves literature for the presenting symptoms and asks
// for an ordered candidate diagnosis list.
func (o *Orchestrator) runHypothesis(
	ctx context.Context,
	patientCase domain.PatientCase,
) (domain.HypothesisOutput, domain.RetrievedContext, int, error) {
	var out domain.HypothesisOutput

	rc, err := o.retrieval.Query(ctx, hypothesisQuery(patientCase), 0, -1)
	if err != nil {
		// Retrieval failure degrades the stage to an uninformed prompt
		// rather than failing it; the model still sees the full record.
		logger.Warn("Hypothesis retrieval failed: %v", err)
		rc = domain.RetrievedContext{Query: hypothesisQuery(patientCase)}
	}

	response, attempts, err := generate(ctx, o.reasoner, hypothesisPrompt(patientCase, rc), o.generateOptions(), 1)
	if err != nil {
		return out, rc, attempts, err
	}
	if err := decodeStagePayload(response, &out); err != nil {
		return out, rc, attempts, err
	}
	if err := out.Validate(); err != nil {
		return out, rc, attempts, err
	}
	return out, rc, attempts, nil
}

// runChallenge retrieves differential diagnosis literature and asks for a
// critical review of the candidate list.
func (o *Orchestrator) runChallenge(
	ctx context.Context,
	patientCase domain.PatientCase,
	candidates []domain.CandidateDiagnosis,
) (domain.ChallengeOutput, domain.RetrievedContext, int, error) {
	var out domain.ChallengeOutput

	leading := ""
	if len(candidates) > 0 {
		leading = candidates[0].Name
	}

	rc, err := o.retrieval.Query(ctx, challengeQuery(patientCase, leading), 0, -1)
	if err != nil {
		logger.Warn("Challenge retrieval failed: %v", err)
		rc = domain.RetrievedContext{Query: challengeQuery(patientCase, leading)}
	}

	response, attempts, err := generate(ctx, o.reasoner, challengePrompt(patientCase, candidates, rc), o.generateOptions(), 1)
	if err != nil {
		return out, rc, attempts, err
	}
	if err := decodeStagePayload(response, &out); err != nil {
		return out, rc, attempts, err
	}
	if err := out.Validate(); err != nil {
		return out, rc, attempts, err
	}
	return out, rc, attempts, nil
}

// runReasoning retrieves diagnosis and treatment literature and asks for
// the final diagnosis. The reasoning stage is mandatory, so a transport
// failure gets one retry before the session fails.
func (o *Orchestrator) runReasoning(
	ctx context.Context,
	patientCase domain.PatientCase,
	candidates []domain.CandidateDiagnosis,
	knownRefs map[string]bool,
) (domain.ReasoningOutput, domain.RetrievedContext, int, error) {
	var out domain.ReasoningOutput

	leading := ""
	if len(candidates) > 0 {
		leading = candidates[0].Name
	}

	rc, err := o.retrieval.Query(ctx, reasoningQuery(patientCase, leading), 0, -1)
	if err != nil {
		logger.Warn("Reasoning retrieval failed: %v", err)
		rc = domain.RetrievedContext{Query: reasoningQuery(patientCase, leading)}
	}
	for _, id := range rc.ChunkIDs() {
		knownRefs[id] = true
	}

	response, attempts, err := generate(ctx, o.reasoner, reasoningPrompt(patientCase, candidates, rc), o.generateOptions(), 2)
	if err != nil {
		return out, rc, attempts, err
	}
	if err := decodeStagePayload(response, &out); err != nil {
		return out, rc, attempts, err
	}
	if err := out.Validate(knownRefs); err != nil {
		return out, rc, attempts, err
	}
	return out, rc, attempts, nil
}
