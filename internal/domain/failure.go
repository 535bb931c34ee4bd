package domain

// CaseFailure represents a failed test case
type CaseFailure struct {
	TestName   string   `json:"test_name"`
	ModulePath string   `json:"module_path"`
	Traceback  []string `json:"traceback"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Message    string   `json:"message"`
	Resolved   bool     `json:"resolved,omitempty"` // Track if test case is marked as resolved
}
