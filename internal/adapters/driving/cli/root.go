// Package cli provides the cobra command tree. Commands hold no business
// logic: they parse flags, call the driving ports and render the results.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driving"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands call. Injected by SetServices before Execute; a
// command whose service is nil fails with a configuration error.
var (
	retrievalService driving.RetrievalService
	diagnosisService driving.DiagnosisService
	storeAdmin       driving.StoreAdmin
	sessionStore     driven.SessionStore
	newCorpusSource  func(dir string) (driven.WatchableSource, error)
)

// Services bundles the collaborators the CLI commands depend on.
type Services struct {
	Retrieval driving.RetrievalService
	Diagnosis driving.DiagnosisService
	Admin     driving.StoreAdmin
	Sessions  driven.SessionStore

	// NewCorpusSource opens a document source for an ingest directory.
	NewCorpusSource func(dir string) (driven.WatchableSource, error)
}

// SetServices wires the services the commands call.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	diagnosisService = s.Diagnosis
	storeAdmin = s.Admin
	sessionStore = s.Sessions
	newCorpusSource = s.NewCorpusSource
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cardiomind",
	Short: "Medical literature retrieval and diagnostic reasoning",
	Long: `CardioMind indexes a cardiology literature corpus and runs a
three-stage diagnostic workflow over patient cases.

The workflow generates candidate diagnoses, challenges them critically and
produces a final evidence-referenced conclusion, consulting the indexed
literature at every stage.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
