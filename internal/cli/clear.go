package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/engine"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the queue",
	Long:  `Drop every queued package and issue of the session.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.Clear(cmd.Context(), &engine.ClearRequest{SessionRef: sessionRef(settings)})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess("Cleared the queue of session " + result.Session)
		return nil
	},
}
