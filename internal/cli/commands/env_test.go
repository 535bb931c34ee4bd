package commands

import (
	"strings"
	"testing"

	"mtest/internal/config"
)

func TestEnvCommand_Execute(t *testing.T) {
	t.Run("prints the contract in export order", func(t *testing.T) {
		ec := NewEnvCommand(config.New())
		cmd, out := testCommand(t)

		if err := ec.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "TSTDB=demo\n" +
			"TSTHOSTNAME=localhost\n" +
			"TSTUSERNAME=monetdb\n" +
			"TSTPASSWORD=monetdb\n" +
			"TSTDEBUG=no\n"
		if out.String() != want {
			t.Errorf("expected:\n%sgot:\n%s", want, out.String())
		}
	})

	t.Run("reflects layered values", func(t *testing.T) {
		cfg := config.New()
		cfg.Options.Database = "staging"
		cfg.Options.Debug = "yes"
		ec := NewEnvCommand(cfg)
		cmd, out := testCommand(t)

		if err := ec.Execute(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(out.String(), "TSTDB=staging\n") {
			t.Errorf("expected the layered database, got:\n%s", out.String())
		}
		if !strings.Contains(out.String(), "TSTDEBUG=yes\n") {
			t.Errorf("expected the layered debug switch, got:\n%s", out.String())
		}
	})
}
