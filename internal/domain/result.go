package domain

import "time"

// InvocationResult represents the outcome of one test tool invocation
type InvocationResult struct {
	Module   string        // Name of the module that was invoked
	Path     string        // Path handed to the test tool
	ExitCode int           // Exit status of the invocation
	Success  bool          // Whether the invocation exited zero
	Output   string        // Combined output of the test tool
	Error    error         // Error if the tool could not be run
	Duration time.Duration // Time taken by the invocation
}

// RunMeta contains metadata about a suite run
type RunMeta struct {
	TotalModules    int     `json:"total_modules"`
	FailedModules   int     `json:"failed_modules"`
	PassedModules   int     `json:"passed_modules"`
	FailedTestCases int     `json:"failed_test_cases"`
	ExitStatus      int     `json:"exit_status"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// RunOutput is the complete persisted structure for a suite run
type RunOutput struct {
	Meta    RunMeta       `json:"meta"`
	Details []CaseFailure `json:"details"`
}
