package parser

import "mtest/internal/domain"

// Parser parses tool output and extracts failures
type Parser interface {
	ParseFailures(result domain.InvocationResult) []domain.CaseFailure
}
