package execution

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mtest/internal/config"
	"mtest/internal/domain"
)

func runnerConfig(t *testing.T, program string, args ...string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.RunnerProgram = program
	cfg.RunnerArgs = args
	return cfg
}

func scriptPath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("resolving script path: %v", err)
	}
	return abs
}

func TestRunner_Run(t *testing.T) {
	script := scriptPath(t, "runner.sh")

	t.Run("passing module", func(t *testing.T) {
		runner := NewRunner(runnerConfig(t, "/bin/sh", script))
		result := runner.Run(context.Background(), domain.Module{Name: "ok_module", Path: "ok_module.py"})

		if !result.Success {
			t.Errorf("expected success, got failure: %v", result.Error)
		}
		if result.ExitCode != 0 {
			t.Errorf("expected exit status 0, got %d", result.ExitCode)
		}
		if !strings.Contains(result.Output, "1 passed") {
			t.Errorf("expected tool output to be captured, got %q", result.Output)
		}
		if result.Module != "ok_module" {
			t.Errorf("expected module ok_module, got %s", result.Module)
		}
		if result.Duration <= 0 {
			t.Error("expected non-zero duration")
		}
	})

	t.Run("failing module", func(t *testing.T) {
		runner := NewRunner(runnerConfig(t, "/bin/sh", script))
		result := runner.Run(context.Background(), domain.Module{Name: "fail_module", Path: "fail_module.py"})

		if result.Success {
			t.Error("expected failure")
		}
		if result.ExitCode != 1 {
			t.Errorf("expected exit status 1, got %d", result.ExitCode)
		}
		if result.Error == nil {
			t.Error("expected error for failing module")
		}
	})

	t.Run("exit status is passed through", func(t *testing.T) {
		runner := NewRunner(runnerConfig(t, "/bin/sh", script))
		result := runner.Run(context.Background(), domain.Module{Name: "seven", Path: "seven.py"})

		if result.ExitCode != 7 {
			t.Errorf("expected exit status 7, got %d", result.ExitCode)
		}
	})

	t.Run("unspawnable tool", func(t *testing.T) {
		runner := NewRunner(runnerConfig(t, "/nonexistent/test-tool"))
		result := runner.Run(context.Background(), domain.Module{Name: "ok_module", Path: "ok_module.py"})

		if result.Success {
			t.Error("expected failure for unspawnable tool")
		}
		if result.ExitCode != ExitUnspawnable {
			t.Errorf("expected exit status %d, got %d", ExitUnspawnable, result.ExitCode)
		}
		if result.Error == nil {
			t.Error("expected error for unspawnable tool")
		}
	})

	t.Run("child inherits exported variables", func(t *testing.T) {
		opts := config.DefaultOptions()
		for _, p := range opts.Pairs() {
			t.Setenv(p[0], p[1])
		}

		runner := NewRunner(runnerConfig(t, "/bin/sh", scriptPath(t, "env.sh")))
		result := runner.Run(context.Background(), domain.Module{Name: "env_probe", Path: "env_probe.py"})

		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		for _, line := range opts.Environ() {
			if !strings.Contains(result.Output, line) {
				t.Errorf("expected child to see %s, output was:\n%s", line, result.Output)
			}
		}
	})
}
