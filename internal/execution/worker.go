package execution

import (
	"context"
	"sync"
	"time"

	"mtest/internal/config"
	"mtest/internal/domain"
	"mtest/internal/parser"
	"mtest/internal/ui"
	"mtest/pkg/logging"
)

// WorkerPool manages a pool of workers for parallel module execution
type WorkerPool struct {
	config   *config.Config
	runner   *Runner
	progress *ui.ProgressBar
	parser   *parser.PytestParser
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner *Runner, pytestParser *parser.PytestParser) *WorkerPool {
	return &WorkerPool{
		config: cfg,
		runner: runner,
		parser: pytestParser,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Execute executes modules in parallel using the worker pool (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, modules []domain.Module) ([]domain.InvocationResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, modules, false)
}

// ExecuteWithOptions executes modules with optional fail-fast (stop on first failure).
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, modules []domain.Module, failFast bool) ([]domain.InvocationResult, time.Duration, error) {
	if len(modules) == 0 {
		return nil, 0, nil
	}
	if !failFast {
		return wp.executeAll(ctx, modules)
	}
	return wp.executeFailFast(ctx, modules)
}

// executeAll runs every module regardless of failures.
func (wp *WorkerPool) executeAll(ctx context.Context, modules []domain.Module) ([]domain.InvocationResult, time.Duration, error) {
	queue := make(chan domain.Module, len(modules))
	results := make(chan domain.InvocationResult, len(modules))
	for _, module := range modules {
		queue <- module
	}
	close(queue)

	var mu sync.Mutex
	var completed int
	var passedCases, failedCases int
	startTime := time.Now()
	workerCount := wp.workerCount()

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for module := range queue {
				logging.Debug("pool", "worker %d picked module %s", workerID, module.Name)
				result := wp.runner.Run(ctx, module)
				results <- result
				mu.Lock()
				completed++
				if wp.parser != nil {
					p, f := wp.parser.ParseTestCounts(result)
					passedCases += p
					failedCases += f
				} else {
					if result.Success {
						passedCases++
					} else {
						failedCases++
					}
				}
				if wp.progress != nil {
					wp.progress.Update(completed, passedCases, failedCases)
				}
				mu.Unlock()
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.InvocationResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), nil
}

// executeFailFast runs modules and stops handing out new ones after the
// first failure.
func (wp *WorkerPool) executeFailFast(ctx context.Context, modules []domain.Module) ([]domain.InvocationResult, time.Duration, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan domain.Module, 1)
	results := make(chan domain.InvocationResult, len(modules))

	go func() {
		defer close(queue)
		for _, module := range modules {
			select {
			case <-ctx.Done():
				return
			case queue <- module:
			}
		}
	}()

	var mu sync.Mutex
	var completed int
	var passedCases, failedCases int
	var seenFailure bool
	startTime := time.Now()
	workerCount := wp.workerCount()

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for module := range queue {
				result := wp.runner.Run(ctx, module)
				mu.Lock()
				done := seenFailure
				mu.Unlock()
				if done {
					continue
				}
				results <- result
				mu.Lock()
				completed++
				if wp.parser != nil {
					p, f := wp.parser.ParseTestCounts(result)
					passedCases += p
					failedCases += f
				} else {
					if result.Success {
						passedCases++
					} else {
						failedCases++
					}
				}
				if wp.progress != nil {
					wp.progress.Update(completed, passedCases, failedCases)
				}
				if !result.Success {
					seenFailure = true
					cancel()
				}
				mu.Unlock()
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.InvocationResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), nil
}

func (wp *WorkerPool) workerCount() int {
	if wp.config.Processors <= 0 {
		return 1
	}
	return wp.config.Processors
}
