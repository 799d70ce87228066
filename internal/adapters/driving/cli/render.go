package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	reportStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func confidenceStyle(c domain.Confidence) lipgloss.Style {
	switch c {
	case domain.ConfidenceHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	case domain.ConfidenceMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
}

// renderReport formats a diagnosis report for the terminal.
func renderReport(report *domain.DiagnosisReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Diagnosis Report") + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Session %s, %s", report.SessionID, report.Elapsed.Round(time.Millisecond))) + "\n\n")

	b.WriteString(sectionStyle.Render("Patient") + "\n")
	b.WriteString("  " + report.PatientSummary + "\n\n")

	b.WriteString(sectionStyle.Render("Primary Diagnosis") + "\n")
	writeDiagnosis(&b, report.Diagnosis.Primary)

	if len(report.Diagnosis.Secondary) > 0 {
		b.WriteString(sectionStyle.Render("Secondary Diagnoses") + "\n")
		for _, d := range report.Diagnosis.Secondary {
			writeDiagnosis(&b, d)
		}
	}

	if len(report.Diagnosis.Differential) > 0 {
		b.WriteString(sectionStyle.Render("Differential") + "\n")
		for _, d := range report.Diagnosis.Differential {
			b.WriteString("  - " + d + "\n")
		}
		b.WriteString("\n")
	}

	if len(report.Diagnosis.TreatmentPlan) > 0 {
		b.WriteString(sectionStyle.Render("Treatment Plan") + "\n")
		for _, t := range report.Diagnosis.TreatmentPlan {
			b.WriteString("  " + t.Category + ":\n")
			for _, r := range t.Recommendations {
				b.WriteString("    - " + r + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Process") + "\n")
	b.WriteString(fmt.Sprintf("  Hypotheses generated:  %d\n", report.Process.HypothesesGenerated))
	b.WriteString(fmt.Sprintf("  Candidates revised:    %d\n", report.Process.CandidatesRevised))
	b.WriteString(fmt.Sprintf("  Quality concerns:      %d\n", report.Process.QualityConcernsIdentified))
	b.WriteString(fmt.Sprintf("  Documents consulted:   %d\n", report.Process.DocumentsConsulted))
	b.WriteString("  Consensus:             " + confidenceStyle(report.ConsensusLevel).Render(string(report.ConsensusLevel)) + "\n")

	if report.Degraded {
		b.WriteString("\n" + warnStyle.Render("Degraded report:") + "\n")
		for _, d := range report.Degradations {
			b.WriteString(fmt.Sprintf("  %s stage failed: %s\n", d.Stage, d.Reason))
		}
	}

	return reportStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeDiagnosis(b *strings.Builder, d domain.Diagnosis) {
	b.WriteString("  " + d.Name + " (" + confidenceStyle(d.Confidence).Render(string(d.Confidence)) + ")\n")
	b.WriteString("  " + d.Justification + "\n")
	if len(d.EvidenceRefs) > 0 {
		b.WriteString(mutedStyle.Render("  evidence: "+strings.Join(d.EvidenceRefs, ", ")) + "\n")
	}
	b.WriteString("\n")
}
