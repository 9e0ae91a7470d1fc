package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/engine"
)

var sessionRmDryRun bool

// sessionRmCmd deletes a session file.
var sessionRmCmd = &cobra.Command{
	Use:   "rm <session>",
	Short: "Delete a session",
	Long: `Delete a saved session permanently.

This only deletes the queued selections; nothing on the system changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		req := &engine.DeleteSessionRequest{
			Name:   name,
			DryRun: sessionRmDryRun,
		}

		result, err := eng.DeleteSession(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		// Handle dry-run output
		if result.DryRun {
			PrintSection("Dry Run: Delete Session")
			PrintInfo(fmt.Sprintf("Session: %s", result.Name))
			fmt.Println()
			PrintWarning("Run without --dry-run to delete")
			return nil
		}

		PrintSection("Delete Session")
		PrintSuccess(fmt.Sprintf("Deleted session: %s", result.Name))
		return nil
	},
}

func init() {
	sessionRmCmd.Flags().BoolVar(&sessionRmDryRun, "dry-run", false, "Show what would be deleted without deleting")
}
