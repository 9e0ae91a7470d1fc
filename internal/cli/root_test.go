package cli

import (
	"bytes"
	"strings"
	"testing"
)

// resetRootFlags clears --help and --version, which cobra keeps set between
// executions of the same command.
func resetRootFlags(t *testing.T) {
	t.Cleanup(func() {
		for _, name := range []string{"help", "version"} {
			if f := rootCmd.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
	})
}

func TestRootCommand_Help(t *testing.T) {
	resetRootFlags(t)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"--help"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"debplan", "Transaction:", "Inspection:", "Session Management:", "install", "--snapshot"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestHelpCommand_Subcommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"help", "plan"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "--levels") {
		t.Errorf("expected plan help with --levels, got %q", buf.String())
	}
}

func TestRootCommand_Version(t *testing.T) {
	resetRootFlags(t)
	SetVersion("1.2.3")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"--version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "1.2.3" {
		t.Errorf("--version = %q, want 1.2.3", got)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetErr(&buf)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"invalid-command"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	SetVersion("2.0.0")
	SetVersion("")
	if rootCmd.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", rootCmd.Version)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	for _, name := range []string{"json", "snapshot", "session", "log-level", "remove-conflicts"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected global flag --%s", name)
		}
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	groups := map[string]string{
		"install":    "transaction",
		"remove":     "transaction",
		"reinstall":  "transaction",
		"upgrade":    "transaction",
		"downgrade":  "transaction",
		"dequeue":    "transaction",
		"clear":      "transaction",
		"status":     "inspection",
		"issues":     "inspection",
		"plan":       "inspection",
		"session":    "session-management",
		"version":    "cli-tooling",
		"completion": "cli-tooling",
	}

	for name, group := range groups {
		t.Run(name, func(t *testing.T) {
			sub, _, err := rootCmd.Find([]string{name})
			if err != nil {
				t.Fatalf("Find(%q) error = %v", name, err)
			}
			if sub.Name() != name {
				t.Fatalf("Find(%q) returned %q", name, sub.Name())
			}
			if sub.GroupID != group {
				t.Errorf("%s group = %q, want %q", name, sub.GroupID, group)
			}
		})
	}
}

func TestCompletionCommand_Shells(t *testing.T) {
	for _, shell := range completionShells {
		sub, _, err := rootCmd.Find([]string{"completion", shell.name})
		if err != nil || sub.Name() != shell.name {
			t.Errorf("missing completion for %s", shell.name)
		}
	}
}
