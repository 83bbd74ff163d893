package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of cmd and its subcommands to its default
// so that consecutive executions in one test binary do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"scan", "serve", "rules", "tuning", "version", "completion"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil || cmd == rootCmd {
				t.Errorf("subcommand %q not registered", name)
			}
		})
	}
}

func TestRootCommand_MissingEnvFile(t *testing.T) {
	if _, _, err := execute(t, "", "version"); err != nil {
		t.Fatalf("version with default env file error = %v", err)
	}
	if _, _, err := execute(t, "", "--env-file", "does-not-exist.env", "version"); err == nil {
		t.Error("explicit missing env file error = nil, want error")
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "1.2.3-test", "abc123"
	defer func() { Version, GitCommit = origVersion, origCommit }()

	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"leakscan 1.2.3-test", "Git Commit: abc123", "Go Version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := execute(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if !strings.Contains(out, "leakscan") {
		t.Error("bash completion does not mention leakscan")
	}

	if _, _, err := execute(t, "", "completion", "tcsh"); err == nil {
		t.Error("unsupported shell error = nil, want error")
	}
}

func TestServeCommand_DryRun(t *testing.T) {
	out, _, err := execute(t, "", "serve", "--dry-run")
	if err != nil {
		t.Fatalf("serve --dry-run error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("output = %q", out)
	}

	if _, _, err := execute(t, "", "serve", "--dry-run", "--log-level", "loud"); err == nil {
		t.Error("invalid log level error = nil, want error")
	}
}
