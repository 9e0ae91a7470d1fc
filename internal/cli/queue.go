package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/debplan/internal/engine"
	"github.com/danieljhkim/debplan/internal/queue"
)

// queueCommands returns one command per user queue.
func queueCommands() []*cobra.Command {
	return []*cobra.Command{
		newQueueCmd(queue.Install, "install <package[=version]>...", "Queue packages for installation",
			`Queue packages for installation. Without a version the newest one is used.
Dependencies are pulled in and conflicts are checked.`, cobra.MinimumNArgs(1)),
		newQueueCmd(queue.Remove, "remove <package>...", "Queue packages for removal",
			`Queue installed packages for removal, together with every installed package
that would break without them. Essential packages cannot be removed.`, cobra.MinimumNArgs(1)),
		newQueueCmd(queue.Reinstall, "reinstall <package>...", "Queue installed packages for reinstallation",
			`Queue the installed version of packages for reinstallation.`, cobra.MinimumNArgs(1)),
		newQueueCmd(queue.Upgrade, "upgrade [package[=version]]...", "Queue packages for upgrade",
			`Queue packages for upgrade to the newest version. Without arguments every
installed package with a newer version is queued.`, cobra.ArbitraryArgs),
		newQueueCmd(queue.Downgrade, "downgrade <package[=version]>...", "Queue packages for downgrade",
			`Queue packages for downgrade. Without a version the next older one is used.`, cobra.MinimumNArgs(1)),
	}
}

func newQueueCmd(t queue.Type, use, short, long string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, settings, err := newEngine(cmd)
			if err != nil {
				return err
			}

			req := &engine.QueueRequest{
				SessionRef: sessionRef(settings),
				Queue:      t,
				Targets:    args,
			}

			result, err := eng.Queue(cmd.Context(), req)
			if err != nil {
				return err
			}

			if jsonOutput {
				return outputJSON(result)
			}

			if len(result.Queued) == 0 {
				PrintInfo(fmt.Sprintf("Nothing to %s", t))
			} else {
				PrintSuccess(fmt.Sprintf("Queued for %s: %s", t, strings.Join(result.Queued, ", ")))
			}
			printStatus(result.Status)
			return nil
		},
	}
}

// dequeueCmd takes packages out of the queue.
var dequeueCmd = &cobra.Command{
	Use:   "dequeue <package>...",
	Short: "Take packages out of the queue",
	Long: `Take packages out of the queue. Dependencies that were only queued for them
are dropped too; dependencies shared with other queued packages stay.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine(cmd)
		if err != nil {
			return err
		}

		req := &engine.DequeueRequest{
			SessionRef: sessionRef(settings),
			IDs:        args,
		}

		result, err := eng.Dequeue(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Dequeued %s", strings.Join(result.Dequeued, ", ")))
		printStatus(result.Status)
		return nil
	},
}
