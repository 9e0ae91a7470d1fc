package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// sessionLsCmd lists all sessions.
var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Long:  `Display all saved sessions with their snapshot and selection count.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection("Sessions")
		if len(result.Sessions) == 0 {
			PrintEmptyState("No sessions found")
			return nil
		}

		rows := make([][]string, 0, len(result.Sessions))
		for _, s := range result.Sessions {
			rows = append(rows, []string{
				s.Name,
				s.Snapshot,
				fmt.Sprintf("%d", s.SelectionCount),
				s.UpdatedAt.Local().Format(time.DateTime),
			})
		}
		PrintTable([]string{"Session", "Snapshot", "Selections", "Updated"}, rows)
		return nil
	},
}
