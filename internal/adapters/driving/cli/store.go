package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Administer the vector store",
	Long:  `Inspect, checkpoint, or remove records from the vector store.`,
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store size and dimension",
	RunE:  runStoreStats,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete [chunk-id]",
	Short: "Remove a single record",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

var storeCheckpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Persist the store to its snapshot file",
	RunE:  runStoreCheckpoint,
}

func init() {
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeDeleteCmd)
	storeCmd.AddCommand(storeCheckpointCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreStats(cmd *cobra.Command, _ []string) error {
	if storeAdmin == nil {
		return errors.New("store admin not configured")
	}

	stats, err := storeAdmin.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	cmd.Printf("Records:   %d\n", stats.Records)
	cmd.Printf("Dimension: %d\n", stats.Dimension)
	return nil
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	if storeAdmin == nil {
		return errors.New("store admin not configured")
	}

	ctx := commandContext(cmd)
	if err := storeAdmin.DeleteRecord(ctx, args[0]); err != nil {
		return err
	}
	// Persist immediately so the removal survives this process.
	if err := checkpointStore(ctx); err != nil {
		return fmt.Errorf("checkpoint store: %w", err)
	}
	cmd.Printf("Deleted %s.\n", args[0])
	return nil
}

func runStoreCheckpoint(cmd *cobra.Command, _ []string) error {
	if storeAdmin == nil {
		return errors.New("store admin not configured")
	}

	if err := storeAdmin.Checkpoint(commandContext(cmd)); err != nil {
		return err
	}
	cmd.Println("Store checkpointed.")
	return nil
}
