package domain

import (
	"fmt"
	"strings"
	"time"
)

// Confidence grades how strongly the evidence supports a diagnosis.
type Confidence string

// Confidence levels, ordered weakest to strongest.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// CandidateDiagnosis is one entry in the hypothesis stage's candidate list.
type CandidateDiagnosis struct {
	// Name is the diagnosis name.
	Name string `json:"name"`

	// Rationale explains why the case supports this diagnosis.
	Rationale string `json:"rationale"`

	// SupportingEvidence lists clinical findings backing the diagnosis.
	SupportingEvidence []string `json:"supporting_evidence"`

	// Probability is the collaborator's likelihood estimate.
	Probability Confidence `json:"probability"`

	// AdditionalTests lists examinations that would confirm or exclude it.
	AdditionalTests []string `json:"additional_tests,omitempty"`
}

// HypothesisOutput is the typed payload of the hypothesis stage.
type HypothesisOutput struct {
	// Candidates are ordered most likely first.
	Candidates []CandidateDiagnosis `json:"candidates"`

	// ClinicalReasoning is the overall reasoning narrative.
	ClinicalReasoning string `json:"clinical_reasoning"`

	// KeyFindings are the findings the candidates hinge on.
	KeyFindings []string `json:"key_findings"`
}

// Validate rejects a hypothesis payload that would be useless downstream.
func (o HypothesisOutput) Validate() error {
	if len(o.Candidates) == 0 {
		return fmt.Errorf("%w: no candidate diagnoses", ErrMalformedResponse)
	}
	for i, c := range o.Candidates {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: candidate %d has no name", ErrMalformedResponse, i)
		}
	}
	return nil
}

// ChallengeOutput is the typed payload of the challenge stage.
type ChallengeOutput struct {
	// RevisedCandidates is the candidate list after scrutiny, reordered or
	// amended as the challenger saw fit.
	RevisedCandidates []CandidateDiagnosis `json:"revised_candidates"`

	// QualityConcerns lists problems found in the hypothesis list.
	QualityConcerns []string `json:"quality_concerns"`

	// AlternativeDiagnoses lists overlooked diagnoses worth considering.
	AlternativeDiagnoses []string `json:"alternative_diagnoses"`
}

// Validate rejects a challenge payload with no revised candidates.
func (o ChallengeOutput) Validate() error {
	if len(o.RevisedCandidates) == 0 {
		return fmt.Errorf("%w: no revised candidates", ErrMalformedResponse)
	}
	return nil
}

// Diagnosis is a concluded diagnosis with its evidentiary justification.
type Diagnosis struct {
	// Name is the diagnosis name.
	Name string `json:"name"`

	// Justification explains the evidentiary basis. Must be non-empty.
	Justification string `json:"justification"`

	// EvidenceRefs traces the justification to retrieved chunk IDs or to
	// prior stage outputs (prefixed "stage:").
	EvidenceRefs []string `json:"evidence_refs"`

	// Confidence grades the evidentiary support.
	Confidence Confidence `json:"confidence"`
}

// TreatmentRecommendation is one category of the treatment plan.
type TreatmentRecommendation struct {
	// Category groups the recommendations (medication, procedure, lifestyle).
	Category string `json:"category"`

	// Recommendations are the concrete actions.
	Recommendations []string `json:"recommendations"`
}

// ReasoningOutput is the typed payload of the reasoning stage.
type ReasoningOutput struct {
	// Primary is the single primary diagnosis.
	Primary Diagnosis `json:"primary"`

	// Secondary are additional confirmed diagnoses.
	Secondary []Diagnosis `json:"secondary,omitempty"`

	// Differential lists diagnoses considered and not excluded.
	Differential []string `json:"differential,omitempty"`

	// TreatmentPlan is the recommended treatment, grouped by category.
	TreatmentPlan []TreatmentRecommendation `json:"treatment_plan,omitempty"`

	// OverallConfidence is the collaborator's confidence in the conclusion.
	OverallConfidence Confidence `json:"overall_confidence"`
}

// Validate enforces the traceability contract: every concluded diagnosis
// carries a non-empty justification tied to retrieved or stage-provided
// material. knownRefs holds the acceptable evidence references.
func (o ReasoningOutput) Validate(knownRefs map[string]bool) error {
	if err := validateDiagnosis(o.Primary, knownRefs); err != nil {
		return fmt.Errorf("primary diagnosis: %w", err)
	}
	for i, d := range o.Secondary {
		if err := validateDiagnosis(d, knownRefs); err != nil {
			return fmt.Errorf("secondary diagnosis %d: %w", i, err)
		}
	}
	return nil
}

func validateDiagnosis(d Diagnosis, knownRefs map[string]bool) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty diagnosis name", ErrMalformedResponse)
	}
	if strings.TrimSpace(d.Justification) == "" {
		return fmt.Errorf("%w: empty justification", ErrMalformedResponse)
	}
	if len(d.EvidenceRefs) == 0 {
		return fmt.Errorf("%w: no evidence references", ErrMalformedResponse)
	}
	for _, ref := range d.EvidenceRefs {
		if !knownRefs[ref] {
			return fmt.Errorf("%w: evidence ref %q is not a retrieved chunk or stage output", ErrMalformedResponse, ref)
		}
	}
	return nil
}

// ProcessCounts summarises what the workflow did, for the report.
type ProcessCounts struct {
	// HypothesesGenerated is the candidate count from the hypothesis stage.
	HypothesesGenerated int `json:"hypotheses_generated"`

	// CandidatesRevised is the revised candidate count from the challenge stage.
	CandidatesRevised int `json:"candidates_revised"`

	// QualityConcernsIdentified counts challenge-stage concerns.
	QualityConcernsIdentified int `json:"quality_concerns_identified"`

	// DocumentsConsulted counts distinct corpus documents across all stages.
	DocumentsConsulted int `json:"documents_consulted"`
}

// DegradationRecord notes a non-mandatory stage failure the report survived.
type DegradationRecord struct {
	// Stage is the stage that failed.
	Stage Stage `json:"stage"`

	// Reason is the failure detail.
	Reason string `json:"reason"`
}

// DiagnosisReport is the aggregated output of a diagnostic session.
type DiagnosisReport struct {
	// SessionID identifies the session that produced the report.
	SessionID string `json:"session_id"`

	// PatientSummary is a one-line description of the case.
	PatientSummary string `json:"patient_summary"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Elapsed is the total workflow duration.
	Elapsed time.Duration `json:"elapsed"`

	// Process summarises the workflow's activity.
	Process ProcessCounts `json:"diagnosis_process"`

	// Diagnosis is the reasoning stage's structured conclusion.
	Diagnosis ReasoningOutput `json:"diagnosis"`

	// ConsensusLevel grades agreement across the stages.
	ConsensusLevel Confidence `json:"consensus_level"`

	// Degraded is true when a non-mandatory stage failed.
	Degraded bool `json:"degraded"`

	// Degradations records which stages failed and why.
	Degradations []DegradationRecord `json:"degradations,omitempty"`
}
