package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

var diagnoseJSON bool

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [case-file]",
	Short: "Run the diagnostic workflow over a patient case",
	Long: `Runs the three-stage diagnostic workflow over a patient case and
prints the aggregated report.

The case file is a JSON object with the standard admission-note sections
(chief_complaint, present_illness, past_history, personal_history,
family_history, physical_examination, auxiliary_examination, vital_signs).
Pass "-" to read the case from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if diagnosisService == nil {
		return errors.New("diagnosis service not configured")
	}

	patientCase, err := readCase(cmd, args[0])
	if err != nil {
		return err
	}

	report, err := diagnosisService.Diagnose(commandContext(cmd), patientCase)
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	if diagnoseJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(renderReport(report))
	return nil
}

func readCase(cmd *cobra.Command, path string) (domain.PatientCase, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.PatientCase{}, fmt.Errorf("read case: %w", err)
	}

	var patientCase domain.PatientCase
	if err := json.Unmarshal(data, &patientCase); err != nil {
		return domain.PatientCase{}, fmt.Errorf("parse case: %w", err)
	}
	return patientCase, nil
}
