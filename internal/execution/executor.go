package execution

import (
	"context"
	"time"

	"mtest/internal/domain"
)

// Executor executes suite modules and returns per-module results
type Executor interface {
	Execute(ctx context.Context, modules []domain.Module) ([]domain.InvocationResult, time.Duration, error)
}

// LastExitCode returns the exit status of the final module in the given
// order. Results may arrive out of order, so the lookup goes by module name.
// The run's own exit status is exactly this value, failures of earlier
// modules do not feed into it.
func LastExitCode(results []domain.InvocationResult, modules []domain.Module) int {
	if len(results) == 0 || len(modules) == 0 {
		return 0
	}

	last := modules[len(modules)-1].Name
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Module == last {
			return results[i].ExitCode
		}
	}

	return results[len(results)-1].ExitCode
}
