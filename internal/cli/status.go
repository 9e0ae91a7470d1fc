package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the queue",
	Long:  `Display every non-empty queue of the session, download sizes and issues.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.Status(cmd.Context(), &engine.StatusRequest{SessionRef: sessionRef(settings)})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printStatus(result)
		return nil
	},
}

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Show unresolved problems",
	Long:  `List the dependencies, conflicts and removals that could not be resolved.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd)
		if err != nil {
			return err
		}

		issues, err := eng.Issues(cmd.Context(), &engine.StatusRequest{SessionRef: sessionRef(settings)})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(issues)
		}

		printIssues(issues)
		return nil
	},
}
