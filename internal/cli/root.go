package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	jsonOutput      bool
	snapshotFlag    string
	sessionFlag     string
	logLevelFlag    string
	removeConflicts bool

	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for debplan.
var rootCmd = &cobra.Command{
	Use:     "debplan",
	Version: "dev",
	Short:   "Package transaction planner",
	Long: `debplan plans package transactions over Debian package metadata.

Queue installs, removals, reinstalls, upgrades and downgrades, and debplan pulls in
dependencies, checks conflicts, and orders the operations for the installer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version printed by --version and the version command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// helpFunc renders help with colored group titles. Commands without a
// group are listed under "Additional Commands:".
func helpFunc(cmd *cobra.Command, args []string) {
	var b strings.Builder

	if cmd.Long != "" {
		b.WriteString(cmd.Long + "\n\n")
	}
	b.WriteString(sectionTitleColor.Sprint("Usage:") + "\n")
	fmt.Fprintf(&b, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		writeCommandList(&b, groupTitleColor.Sprint(group.Title), cmd, group.ID)
	}
	writeCommandList(&b, sectionTitleColor.Sprint("Additional Commands:"), cmd, "")

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		b.WriteString(sectionTitleColor.Sprint("Flags:") + "\n")
		b.WriteString(cmd.LocalFlags().FlagUsages())
		b.WriteString(cmd.InheritedFlags().FlagUsages())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	fmt.Fprint(cmd.OutOrStdout(), b.String())
}

func writeCommandList(b *strings.Builder, title string, cmd *cobra.Command, groupID string) {
	var lines []string
	for _, c := range cmd.Commands() {
		if c.GroupID == groupID && !c.Hidden {
			lines = append(lines, fmt.Sprintf("  %-11s %s", c.Name(), c.Short))
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
}

// completionShells maps each supported shell to its script generator.
var completionShells = []struct {
	name string
	gen  func(cmd *cobra.Command, w io.Writer) error
}{
	{"bash", func(cmd *cobra.Command, w io.Writer) error { return cmd.GenBashCompletion(w) }},
	{"zsh", func(cmd *cobra.Command, w io.Writer) error { return cmd.GenZshCompletion(w) }},
	{"fish", func(cmd *cobra.Command, w io.Writer) error { return cmd.GenFishCompletion(w, true) }},
	{"powershell", func(cmd *cobra.Command, w io.Writer) error { return cmd.GenPowerShellCompletionWithDesc(w) }},
}

func newCompletionCmd() *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate the autocompletion script for the specified shell",
		Long: `Generate the autocompletion script for debplan for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	for _, shell := range completionShells {
		gen := shell.gen
		completionCmd.AddCommand(&cobra.Command{
			Use:                   shell.name,
			Short:                 "Generate the autocompletion script for " + shell.name,
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd.Root(), cmd.OutOrStdout())
			},
		})
	}
	return completionCmd
}

func init() {
	rootCmd.SetHelpFunc(helpFunc)

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.StringVar(&snapshotFlag, "snapshot", "", "Metadata snapshot file (JSON or YAML)")
	flags.StringVar(&sessionFlag, "session", "", "Session name (default \"default\")")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&removeConflicts, "remove-conflicts", false, "Remove installed packages that conflict with queued ones")

	groups := []struct {
		id       string
		title    string
		commands []*cobra.Command
	}{
		{"transaction", "Transaction:", append(queueCommands(), dequeueCmd, clearCmd)},
		{"inspection", "Inspection:", []*cobra.Command{statusCmd, issuesCmd, planCmd}},
		{"session-management", "Session Management:", []*cobra.Command{sessionCmd}},
		{"cli-tooling", "CLI & Tooling:", []*cobra.Command{versionCmd, newCompletionCmd()}},
	}
	for _, g := range groups {
		rootCmd.AddGroup(&cobra.Group{ID: g.id, Title: g.title})
		for _, c := range g.commands {
			c.GroupID = g.id
			rootCmd.AddCommand(c)
		}
	}

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			target, _, err := cmd.Root().Find(args)
			if err != nil || target == nil {
				target = cmd.Root()
			}
			_ = target.Help()
		},
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the debplan CLI version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
	},
}

// Execute runs the root command. Commands see ctx through cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
