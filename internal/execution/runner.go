package execution

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"mtest/internal/config"
	"mtest/internal/domain"
	"mtest/pkg/logging"
)

// ExitUnspawnable is recorded when the test tool itself cannot be started,
// following the shell convention for missing commands.
const ExitUnspawnable = 127

// Runner invokes the test tool for a single suite module
type Runner struct {
	config *config.Config
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{config: cfg}
}

// Run invokes the test tool for one module and waits for it to finish
func (r *Runner) Run(ctx context.Context, module domain.Module) domain.InvocationResult {
	args := make([]string, 0, len(r.config.RunnerArgs)+1)
	args = append(args, r.config.RunnerArgs...)
	args = append(args, module.Path)

	cmd := exec.CommandContext(ctx, r.config.RunnerProgram, args...)

	// The exported suite variables travel to the child through the
	// inherited environment
	cmd.Env = os.Environ()
	cmd.Dir = r.config.ProjectPath

	logging.Debug("runner", "invoking %s %s", r.config.RunnerProgram, strings.Join(args, " "))

	start := time.Now()
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = ExitUnspawnable
		}
	}

	logging.Debug("runner", "module %s finished with status %d in %s", module.Name, exitCode, duration)

	return domain.InvocationResult{
		Module:   module.Name,
		Path:     module.Path,
		ExitCode: exitCode,
		Success:  err == nil,
		Output:   string(output),
		Error:    err,
		Duration: duration,
	}
}
