package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mtest/internal/config"
	"mtest/internal/discovery"
	"mtest/internal/execution"
	"mtest/internal/parser"
	"mtest/internal/ui"
)

func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func toolPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", "tool.sh"))
	if err != nil {
		t.Fatalf("resolving tool path: %v", err)
	}
	return abs
}

// scrubSuiteEnv empties the suite variables for the test's duration so
// exports made by the command are observable and undone afterwards.
func scrubSuiteEnv(t *testing.T) {
	t.Helper()
	keys := []string{config.EnvDatabase, config.EnvHostname, config.EnvUsername, config.EnvPassword, config.EnvDebug}
	for _, key := range keys {
		t.Setenv(key, "")
	}
	t.Setenv("MTEST_RECORD", "")
	t.Setenv("MTEST_FAIL", "")
	t.Setenv("MTEST_FAIL_STATUS", "")
}

func readRecord(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("reading record: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func bootstrapSetup(t *testing.T) (*BootstrapCommand, *config.Config, *int) {
	t.Helper()
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.RunnerProgram = "/bin/sh"
	cfg.RunnerArgs = []string{toolPath(t)}

	status := -1
	runner := execution.NewRunner(cfg)
	sequence := execution.NewSequence(runner, parser.NewPytestParser())
	formatter := ui.NewFormatter(cfg, discovery.NewParser())
	bc := NewBootstrapCommand(cfg, sequence, formatter, func(s int) { status = s })
	return bc, cfg, &status
}

func TestBootstrapCommand_Execute(t *testing.T) {
	t.Run("invokes the fixed pair in order", func(t *testing.T) {
		scrubSuiteEnv(t)
		record := filepath.Join(t.TempDir(), "record.log")
		t.Setenv("MTEST_RECORD", record)

		bc, cfg, status := bootstrapSetup(t)
		cmd, out := testCommand(t)

		if err := bc.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := readRecord(t, record)
		want := []string{
			cfg.GetModulePath("runtests"),
			cfg.GetModulePath("test_control"),
		}
		if len(lines) != len(want) {
			t.Fatalf("expected %d invocations, got %d: %v", len(want), len(lines), lines)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("invocation %d: expected %s, got %s", i, want[i], lines[i])
			}
		}
		if *status != 0 {
			t.Errorf("expected exit status 0, got %d", *status)
		}
		if !strings.Contains(out.String(), "TSTDB=demo") {
			t.Errorf("expected the child to see the exported variables, output:\n%s", out.String())
		}
	})

	t.Run("exports the baked-in values over a stale environment", func(t *testing.T) {
		scrubSuiteEnv(t)
		t.Setenv(config.EnvDatabase, "stale")
		t.Setenv(config.EnvDebug, "yes")

		bc, _, _ := bootstrapSetup(t)
		cmd, out := testCommand(t)

		if err := bc.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := os.Getenv(config.EnvDatabase); got != config.DefaultDatabase {
			t.Errorf("expected %s exported as %q, got %q", config.EnvDatabase, config.DefaultDatabase, got)
		}
		if got := os.Getenv(config.EnvDebug); got != config.DefaultDebug {
			t.Errorf("expected %s exported as %q, got %q", config.EnvDebug, config.DefaultDebug, got)
		}
		if strings.Contains(out.String(), "TSTDB=stale") {
			t.Errorf("expected the child to see the baked-in database, output:\n%s", out.String())
		}
	})

	t.Run("a failing module does not stop the ones after it", func(t *testing.T) {
		scrubSuiteEnv(t)
		record := filepath.Join(t.TempDir(), "record.log")
		t.Setenv("MTEST_RECORD", record)
		t.Setenv("MTEST_FAIL", "runtests")
		t.Setenv("MTEST_FAIL_STATUS", "3")

		bc, _, status := bootstrapSetup(t)
		cmd, _ := testCommand(t)

		if err := bc.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := readRecord(t, record)
		if len(lines) != 2 {
			t.Fatalf("expected the second module to run after a failure, got %v", lines)
		}
		if *status != 0 {
			t.Errorf("expected the passing final module to decide the status, got %d", *status)
		}
	})

	t.Run("exit status follows the final module", func(t *testing.T) {
		scrubSuiteEnv(t)
		t.Setenv("MTEST_FAIL", "test_control")
		t.Setenv("MTEST_FAIL_STATUS", "2")

		bc, _, status := bootstrapSetup(t)
		cmd, _ := testCommand(t)

		if err := bc.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *status != 2 {
			t.Errorf("expected exit status 2, got %d", *status)
		}
	})

	t.Run("unspawnable tool", func(t *testing.T) {
		scrubSuiteEnv(t)

		bc, cfg, status := bootstrapSetup(t)
		cfg.RunnerProgram = "/nonexistent/test-tool"
		cmd, _ := testCommand(t)

		if err := bc.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *status != execution.ExitUnspawnable {
			t.Errorf("expected exit status %d, got %d", execution.ExitUnspawnable, *status)
		}
	})
}
