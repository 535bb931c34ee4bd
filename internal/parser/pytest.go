package parser

import (
	"regexp"
	"strconv"
	"strings"

	"mtest/internal/domain"
)

// PytestParser parses the output of pytest style tool invocations. The
// suite's older modules still print plain unittest runner output, so both
// summary formats are understood.
type PytestParser struct{}

// NewPytestParser creates a new PytestParser
func NewPytestParser() *PytestParser {
	return &PytestParser{}
}

var (
	// pytest summary: "3 passed, 2 failed, 1 error in 0.12s"
	pytestPassedPattern = regexp.MustCompile(`(\d+) passed`)
	pytestFailedPattern = regexp.MustCompile(`(\d+) failed`)
	pytestErrorPattern  = regexp.MustCompile(`(\d+) error`)

	// unittest summary: "Ran 5 tests in 0.003s" plus "OK" or
	// "FAILED (failures=2, errors=1)"
	unittestRanPattern    = regexp.MustCompile(`Ran (\d+) tests? in`)
	unittestFailedPattern = regexp.MustCompile(`FAILED \(([^)]*)\)`)
	unittestCountPattern  = regexp.MustCompile(`(failures|errors)=(\d+)`)

	// short test summary info: "FAILED tests/test_control.py::TestControl::test_create - msg"
	shortSummaryPattern = regexp.MustCompile(`^(?:FAILED|ERROR) (\S+?)::(\S+)(?: - (.*))?$`)

	// unittest block header: "FAIL: test_create (test_control.TestControl)"
	unittestBlockPattern = regexp.MustCompile(`^(?:FAIL|ERROR): (\w+) \(([\w.]+)\)`)

	// section header inside the FAILURES block: "____ TestControl.test_create ____".
	// Frame separators ("_ _ _ _") must not count as headers.
	sectionHeaderPattern = regexp.MustCompile(`^_+ ([^_\s].*?) _+$`)

	// location line closing a pytest traceback: "tests/test_control.py:42: AssertionError"
	locationPattern = regexp.MustCompile(`^(\S+\.py):(\d+)[: ]`)

	// traceback frame in unittest output: `File "tests/test_control.py", line 42, in test_create`
	framePattern = regexp.MustCompile(`File "(.+?)", line (\d+)`)
)

// ParseTestCounts extracts passed and failed test case counts from the tool output.
// Returns (passed, failed). If no summary is found, the whole module counts as
// one case: (1,0) for success, (0,1) for failure.
func (p *PytestParser) ParseTestCounts(result domain.InvocationResult) (passed, failed int) {
	output := result.Output

	if m := pytestPassedPattern.FindStringSubmatch(output); len(m) >= 2 {
		passed, _ = strconv.Atoi(m[1])
	}
	if m := pytestFailedPattern.FindStringSubmatch(output); len(m) >= 2 {
		n, _ := strconv.Atoi(m[1])
		failed += n
	}
	if m := pytestErrorPattern.FindStringSubmatch(output); len(m) >= 2 {
		n, _ := strconv.Atoi(m[1])
		failed += n
	}
	if passed > 0 || failed > 0 {
		return passed, failed
	}

	if m := unittestRanPattern.FindStringSubmatch(output); len(m) >= 2 {
		total, _ := strconv.Atoi(m[1])
		if fm := unittestFailedPattern.FindStringSubmatch(output); len(fm) >= 2 {
			for _, cm := range unittestCountPattern.FindAllStringSubmatch(fm[1], -1) {
				n, _ := strconv.Atoi(cm[2])
				failed += n
			}
		}
		if total >= failed {
			passed = total - failed
		}
		if total > 0 {
			return passed, failed
		}
	}

	// Fallback: one "case" per module
	if result.Success {
		return 1, 0
	}
	return 0, 1
}

// ParseFailures extracts the failed test cases from the tool output
func (p *PytestParser) ParseFailures(result domain.InvocationResult) []domain.CaseFailure {
	lines := strings.Split(result.Output, "\n")

	failures := p.parseShortSummary(lines, result.Path)
	if len(failures) == 0 {
		failures = p.parseUnittestBlocks(lines, result.Path)
	}
	p.enrichFromSections(lines, failures)

	return failures
}

// parseShortSummary reads the "short test summary info" lines pytest prints
// at the end of a failing run.
func (p *PytestParser) parseShortSummary(lines []string, modulePath string) []domain.CaseFailure {
	var failures []domain.CaseFailure

	for _, line := range lines {
		m := shortSummaryPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		failures = append(failures, domain.CaseFailure{
			TestName:   strings.ReplaceAll(m[2], "::", "."),
			ModulePath: modulePath,
			Message:    m[3],
			Traceback:  []string{},
		})
	}

	return failures
}

// parseUnittestBlocks reads "FAIL: name (module.Class)" blocks from plain
// unittest runner output.
func (p *PytestParser) parseUnittestBlocks(lines []string, modulePath string) []domain.CaseFailure {
	var failures []domain.CaseFailure

	for i := 0; i < len(lines); i++ {
		m := unittestBlockPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		name := m[1]
		context := m[2]
		if dot := strings.LastIndex(context, "."); dot >= 0 {
			name = context[dot+1:] + "." + name
		}

		failure := domain.CaseFailure{
			TestName:   name,
			ModulePath: modulePath,
			Traceback:  []string{},
		}

		// Block body runs from the dashed separator to the next one
		var block []string
		for j := i + 1; j < len(lines); j++ {
			line := lines[j]
			if unittestBlockPattern.MatchString(line) {
				break
			}
			if strings.HasPrefix(line, "======") {
				break
			}
			if strings.HasPrefix(line, "------") {
				if len(block) > 0 {
					break
				}
				continue
			}
			block = append(block, line)
		}

		for len(block) > 0 && strings.TrimSpace(block[len(block)-1]) == "" {
			block = block[:len(block)-1]
		}

		for _, line := range block {
			if fm := framePattern.FindStringSubmatch(line); fm != nil {
				failure.File = fm[1]
				failure.Line, _ = strconv.Atoi(fm[2])
			}
		}
		if len(block) > 0 {
			failure.Message = strings.TrimSpace(block[len(block)-1])
			failure.Traceback = block
		}

		failures = append(failures, failure)
	}

	return failures
}

// enrichFromSections fills file, line and traceback details from the
// FAILURES sections pytest prints above the short summary.
func (p *PytestParser) enrichFromSections(lines []string, failures []domain.CaseFailure) {
	for i := 0; i < len(lines); i++ {
		m := sectionHeaderPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		failure := matchFailure(failures, m[1])
		if failure == nil {
			continue
		}

		var section []string
		for j := i + 1; j < len(lines); j++ {
			line := lines[j]
			if sectionHeaderPattern.MatchString(line) || strings.HasPrefix(line, "======") {
				break
			}
			section = append(section, line)
		}
		for len(section) > 0 && strings.TrimSpace(section[len(section)-1]) == "" {
			section = section[:len(section)-1]
		}

		for _, line := range section {
			if lm := locationPattern.FindStringSubmatch(line); lm != nil {
				failure.File = lm[1]
				failure.Line, _ = strconv.Atoi(lm[2])
			}
			if failure.Message == "" && strings.HasPrefix(line, "E ") {
				failure.Message = strings.TrimSpace(strings.TrimPrefix(line, "E "))
			}
		}
		if len(section) > 0 && len(failure.Traceback) == 0 {
			failure.Traceback = section
		}
	}
}

// matchFailure finds the failure a section header belongs to. Headers use
// dots between class and case name and may carry parametrize suffixes.
func matchFailure(failures []domain.CaseFailure, header string) *domain.CaseFailure {
	header = strings.TrimSpace(header)

	for i := range failures {
		if failures[i].TestName == header {
			return &failures[i]
		}
	}

	base := header
	if idx := strings.Index(base, "["); idx > 0 {
		base = base[:idx]
	}
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[dot+1:]
	}
	for i := range failures {
		name := failures[i].TestName
		if idx := strings.Index(name, "["); idx > 0 {
			name = name[:idx]
		}
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
		if name == base {
			return &failures[i]
		}
	}

	return nil
}
