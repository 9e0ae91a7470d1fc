package cli

import (
	"github.com/spf13/cobra"
)

// sessionCmd is the parent command for session management.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long:  `Manage saved transaction sessions.`,
}

func init() {
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
