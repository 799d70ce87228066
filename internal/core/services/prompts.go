package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

// orEmpty substitutes a placeholder for missing case fields so prompts stay
// well formed.
func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return strings.TrimSpace(s)
}

// formatCase renders the admission-note sections of a patient case.
func formatCase(c domain.PatientCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chief complaint: %s\n", orEmpty(c.ChiefComplaint))
	fmt.Fprintf(&b, "Present illness: %s\n", orEmpty(c.PresentIllness))
	fmt.Fprintf(&b, "Past history: %s\n", orEmpty(c.PastHistory))
	fmt.Fprintf(&b, "Personal history: %s\n", orEmpty(c.PersonalHistory))
	fmt.Fprintf(&b, "Family history: %s\n", orEmpty(c.FamilyHistory))
	fmt.Fprintf(&b, "Physical examination: %s\n", orEmpty(c.PhysicalExamination))
	fmt.Fprintf(&b, "Auxiliary examination: %s\n", orEmpty(c.AuxiliaryExamination))
	fmt.Fprintf(&b, "Vital signs: %s\n", orEmpty(c.VitalSigns))
	return b.String()
}

// formatContext renders retrieved literature passages with their chunk IDs
// so the model can cite them as evidence references.
func formatContext(rc domain.RetrievedContext) string {
	if len(rc.Passages) == 0 {
		return "No relevant literature retrieved."
	}
	var b strings.Builder
	for i, p := range rc.Passages {
		fmt.Fprintf(&b, "[%d] chunk_id=%s source=%s score=%.2f\n%s\n\n", i+1, p.ChunkID, p.Source, p.Score, p.Text)
	}
	return strings.TrimSpace(b.String())
}

// formatCandidates renders a candidate list for downstream stage prompts.
func formatCandidates(candidates []domain.CandidateDiagnosis) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (probability: %s)\n", i+1, c.Name, c.Probability)
		if c.Rationale != "" {
			fmt.Fprintf(&b, "   Rationale: %s\n", c.Rationale)
		}
		for _, e := range c.SupportingEvidence {
			fmt.Fprintf(&b, "   - %s\n", e)
		}
	}
	return b.String()
}

// hypothesisQuery builds the literature retrieval query for the hypothesis
// stage from the presenting symptoms.
func hypothesisQuery(c domain.PatientCase) string {
	parts := []string{orEmpty(c.ChiefComplaint)}
	if vs := strings.TrimSpace(c.VitalSigns); vs != "" {
		parts = append(parts, vs)
	}
	parts = append(parts, "cardiovascular disease cardiology diagnosis")
	return strings.Join(parts, " ")
}

// challengeQuery builds the retrieval query for the challenge stage,
// steering towards differential diagnosis literature for the current
// leading candidate.
func challengeQuery(c domain.PatientCase, leading string) string {
	parts := []string{orEmpty(c.ChiefComplaint)}
	if leading != "" {
		parts = append(parts, leading)
	}
	parts = append(parts, "cardiovascular disease differential diagnosis")
	return strings.Join(parts, " ")
}

// reasoningQuery builds the retrieval query for the final reasoning stage,
// targeting diagnosis and treatment literature for the revised candidates.
func reasoningQuery(c domain.PatientCase, leading string) string {
	parts := []string{orEmpty(c.ChiefComplaint)}
	if leading != "" {
		parts = append(parts, leading)
	}
	parts = append(parts, "cardiovascular disease diagnosis treatment")
	return strings.Join(parts, " ")
}

// hypothesisPrompt asks for an ordered candidate diagnosis list.
func hypothesisPrompt(c domain.PatientCase, rc domain.RetrievedContext) string {
	return fmt.Sprintf(`You are an experienced cardiology assistant responsible for generating
candidate diagnostic hypotheses from a patient record.

[Patient record]
%s
[Relevant medical literature]
%s

[Task]
Generate a candidate diagnosis list based on the record and the literature:
1. Order candidates from most to least likely.
2. Provide 3 to 5 candidates, focused on cardiovascular disease.
3. For each candidate give the supporting clinical evidence, a probability
   estimate and further tests that would confirm or exclude it.

Respond with JSON only, using exactly this structure:
{
  "candidates": [
    {
      "name": "diagnosis name",
      "rationale": "why the record supports it",
      "supporting_evidence": ["evidence 1", "evidence 2"],
      "probability": "high|medium|low",
      "additional_tests": ["test 1"]
    }
  ],
  "clinical_reasoning": "overall reasoning narrative",
  "key_findings": ["finding 1", "finding 2"]
}`, formatCase(c), formatContext(rc))
}

// challengePrompt asks for a critical review of the candidate list.
func challengePrompt(c domain.PatientCase, candidates []domain.CandidateDiagnosis, rc domain.RetrievedContext) string {
	return fmt.Sprintf(`You are a rigorous medical quality-control reviewer responsible for
challenging and revising diagnostic hypotheses.

[Patient record]
%s
[Initial candidate diagnoses]
%s
[Relevant medical literature]
%s

[Task]
Review the candidate list critically:
1. Check whether the clinical evidence actually supports each candidate.
2. Identify over-diagnosis, missed diagnoses and logic errors.
3. Make sure life-threatening diagnoses are considered and common
   diagnoses are prioritised.
4. Produce a revised, reordered candidate list.

Respond with JSON only, using exactly this structure:
{
  "revised_candidates": [
    {
      "name": "diagnosis name",
      "rationale": "review reasoning",
      "supporting_evidence": ["evidence 1"],
      "probability": "high|medium|low",
      "additional_tests": ["test 1"]
    }
  ],
  "quality_concerns": ["concern 1"],
  "alternative_diagnoses": ["overlooked diagnosis 1"]
}`, formatCase(c), formatCandidates(candidates), formatContext(rc))
}

// reasoningPrompt asks for the final diagnosis with traceable evidence.
func reasoningPrompt(c domain.PatientCase, candidates []domain.CandidateDiagnosis, rc domain.RetrievedContext) string {
	return fmt.Sprintf(`You are a senior cardiology attending responsible for the final clinical
diagnosis decision.

[Patient record]
%s
[Revised candidate diagnoses]
%s
[Relevant medical literature]
%s

[Task]
Synthesise all information into a final diagnosis:
1. Determine the single primary diagnosis.
2. List secondary diagnoses that need attention.
3. List differential diagnoses still to be excluded.
4. Recommend a treatment plan grouped by category.

Every diagnosis must carry a justification and evidence_refs. Evidence
references must be either a chunk_id from the literature above or one of
"stage:hypothesis" / "stage:challenge" for conclusions carried over from
earlier stages. Do not invent references.

Respond with JSON only, using exactly this structure:
{
  "primary": {
    "name": "diagnosis name",
    "justification": "evidentiary basis",
    "evidence_refs": ["chunk_id or stage:hypothesis"],
    "confidence": "high|medium|low"
  },
  "secondary": [
    {
      "name": "diagnosis name",
      "justification": "evidentiary basis",
      "evidence_refs": ["chunk_id"],
      "confidence": "high|medium|low"
    }
  ],
  "differential": ["diagnosis to exclude"],
  "treatment_plan": [
    {"category": "medication", "recommendations": ["action 1"]}
  ],
  "overall_confidence": "high|medium|low"
}`, formatCase(c), formatCandidates(candidates), formatContext(rc))
}
