package domain

import "strings"

// PatientCase is the clinical record a diagnostic session runs against.
// Field names follow the standard admission-note sections.
type PatientCase struct {
	// ChiefComplaint is the presenting problem in the patient's words.
	ChiefComplaint string `json:"chief_complaint"`

	// PresentIllness describes the history of the presenting problem.
	PresentIllness string `json:"present_illness"`

	// PastHistory lists prior conditions and interventions.
	PastHistory string `json:"past_history"`

	// PersonalHistory covers lifestyle and exposure factors.
	PersonalHistory string `json:"personal_history"`

	// FamilyHistory lists relevant hereditary conditions.
	FamilyHistory string `json:"family_history"`

	// PhysicalExamination records examination findings.
	PhysicalExamination string `json:"physical_examination"`

	// AuxiliaryExamination records lab and imaging results.
	AuxiliaryExamination string `json:"auxiliary_examination"`

	// VitalSigns records temperature, pulse, respiration and blood pressure.
	VitalSigns string `json:"vital_signs"`
}

// Validate checks that the case carries enough information to diagnose.
// A case needs a chief complaint or at least one clinical finding; anything
// less would waste collaborator calls on an unanswerable question.
func (c PatientCase) Validate() error {
	if strings.TrimSpace(c.ChiefComplaint) != "" {
		return nil
	}
	for _, s := range []string{c.PresentIllness, c.PhysicalExamination, c.AuxiliaryExamination} {
		if strings.TrimSpace(s) != "" {
			return nil
		}
	}
	return ErrEmptyCase
}

// Summary returns a one-line description of the case for logs and reports.
func (c PatientCase) Summary() string {
	parts := make([]string, 0, 2)
	if cc := strings.TrimSpace(c.ChiefComplaint); cc != "" {
		parts = append(parts, cc)
	}
	if vs := strings.TrimSpace(c.VitalSigns); vs != "" {
		parts = append(parts, vs)
	}
	if len(parts) == 0 {
		return "no chief complaint recorded"
	}
	return strings.Join(parts, "; ")
}
