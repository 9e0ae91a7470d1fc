package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/engine"
)

var (
	planLevels bool
	planForce  bool
	planVerify bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the ordered transaction",
	Long: `Print the tasks to hand to the installer: removals first, leaf packages
before the packages they depend on, then installations level by level.

A transaction with issues is refused unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd)
		if err != nil {
			return err
		}

		req := &engine.PlanRequest{
			SessionRef: sessionRef(settings),
			Force:      planForce,
			Verify:     planVerify,
		}

		result, err := eng.Plan(cmd.Context(), req)
		if result == nil {
			return err
		}

		if jsonOutput {
			if jerr := outputJSON(result); jerr != nil {
				return jerr
			}
			return err
		}

		switch {
		case errors.Is(err, engine.ErrIssues):
			printIssues(result.Plan.Issues)
		case errors.Is(err, engine.ErrDigestMismatch):
			printPlan(result.Plan, planLevels)
			printMismatches(result.Mismatches)
		default:
			printPlan(result.Plan, planLevels)
		}
		return err
	},
}

func init() {
	planCmd.Flags().BoolVar(&planLevels, "levels", false, "Show install levels")
	planCmd.Flags().BoolVarP(&planForce, "force", "f", false, "Print the plan even when the transaction has issues")
	planCmd.Flags().BoolVar(&planVerify, "verify", false, "Check staged archives against their digests")
}
