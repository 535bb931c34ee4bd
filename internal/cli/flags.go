package cli

import "mtest/internal/config"

// Flags holds command-line flags
type Flags struct {
	Processors   int
	NameFilter   string
	SuitePath    string
	ProjectPath  string
	Prepare      bool
	Fresh        bool
	FailFast     bool
	OpenFailures bool
	TestCases    bool
	Bootstrap    bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:   f.Processors,
		NameFilter:   f.NameFilter,
		SuitePath:    f.SuitePath,
		ProjectPath:  f.ProjectPath,
		Prepare:      f.Prepare,
		Fresh:        f.Fresh,
		FailFast:     f.FailFast,
		OpenFailures: f.OpenFailures,
		TestCases:    f.TestCases,
		Bootstrap:    f.Bootstrap,
	}
}
