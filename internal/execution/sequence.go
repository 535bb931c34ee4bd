package execution

import (
	"context"
	"io"
	"time"

	"mtest/internal/domain"
	"mtest/internal/parser"
	"mtest/internal/ui"
)

// Sequence invokes modules strictly one at a time in the order given.
// A failing module never stops the ones after it. Environment exports
// made before the first invocation stay visible to every later one.
type Sequence struct {
	runner   *Runner
	parser   *parser.PytestParser
	progress *ui.ProgressBar
	stream   io.Writer
}

// NewSequence creates a new Sequence
func NewSequence(runner *Runner, pytestParser *parser.PytestParser) *Sequence {
	return &Sequence{
		runner: runner,
		parser: pytestParser,
	}
}

// SetProgress sets the progress bar for the sequence
func (s *Sequence) SetProgress(progress *ui.ProgressBar) {
	s.progress = progress
}

// SetStream makes every invocation's output pass through to the given
// writer as soon as the invocation finishes
func (s *Sequence) SetStream(w io.Writer) {
	s.stream = w
}

// Execute runs the modules in order and returns one result per module,
// in the same order
func (s *Sequence) Execute(ctx context.Context, modules []domain.Module) ([]domain.InvocationResult, time.Duration, error) {
	if len(modules) == 0 {
		return nil, 0, nil
	}

	startTime := time.Now()
	results := make([]domain.InvocationResult, 0, len(modules))
	var passedCases, failedCases int

	for _, module := range modules {
		result := s.runner.Run(ctx, module)
		results = append(results, result)

		if s.stream != nil {
			io.WriteString(s.stream, result.Output)
		}

		if s.parser != nil {
			p, f := s.parser.ParseTestCounts(result)
			passedCases += p
			failedCases += f
		} else {
			if result.Success {
				passedCases++
			} else {
				failedCases++
			}
		}
		if s.progress != nil {
			s.progress.Update(len(results), passedCases, failedCases)
		}
	}

	if s.progress != nil {
		s.progress.Finish()
	}

	return results, time.Since(startTime), nil
}
