package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Browse archived diagnostic sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions, most recent first",
	RunE:  runSessionList,
}

var sessionGetCmd = &cobra.Command{
	Use:   "get [session-id]",
	Short: "Show one archived session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionGet,
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionGetCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if sessionStore == nil {
		return errors.New("session store not configured")
	}

	ids, err := sessionStore.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No archived sessions.")
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}

func runSessionGet(cmd *cobra.Command, args []string) error {
	if sessionStore == nil {
		return errors.New("session store not configured")
	}

	session, err := sessionStore.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
