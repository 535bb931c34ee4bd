package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_GetSuitePath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				SuitePath:   "tests",
				Flags:       Flags{},
			},
			expected: "tests",
		},
		{
			name: "with suite path flag",
			config: &Config{
				ProjectPath: "/project",
				SuitePath:   "tests",
				Flags: Flags{
					SuitePath: "suite",
				},
			},
			expected: "/project/suite",
		},
		{
			name: "absolute suite path",
			config: &Config{
				ProjectPath: "/project",
				SuitePath:   "tests",
				Flags: Flags{
					SuitePath: "/absolute/path",
				},
			},
			expected: "/absolute/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.GetSuitePath()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestConfig_GetModulePath(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"

	got := cfg.GetModulePath("runtests")
	expected := "/project/tests/runtests.py"
	if got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestConfig_GetControlAddress(t *testing.T) {
	cfg := New()

	got := cfg.GetControlAddress()
	expected := "localhost:50000"
	if got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ProjectPath != DefaultProjectPath {
		t.Errorf("expected ProjectPath %s, got %s", DefaultProjectPath, cfg.ProjectPath)
	}

	if cfg.Processors != DefaultProcessors {
		t.Errorf("expected Processors %d, got %d", DefaultProcessors, cfg.Processors)
	}

	if cfg.RunnerProgram != DefaultRunnerProgram {
		t.Errorf("expected RunnerProgram %s, got %s", DefaultRunnerProgram, cfg.RunnerProgram)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected Port %d, got %d", DefaultPort, cfg.Port)
	}

	if len(cfg.PathsToIgnore) != len(DefaultPathsToIgnore) {
		t.Errorf("expected %d paths to ignore, got %d", len(DefaultPathsToIgnore), len(cfg.PathsToIgnore))
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	expected := []string{
		"TSTDB=demo",
		"TSTHOSTNAME=localhost",
		"TSTUSERNAME=monetdb",
		"TSTPASSWORD=monetdb",
		"TSTDEBUG=no",
	}

	got := opts.Environ()
	if len(got) != len(expected) {
		t.Fatalf("expected %d variables, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("variable %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestOptions_Apply(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug}
	for _, key := range keys {
		t.Setenv(key, "sentinel")
	}
	t.Setenv("UNRELATED_VAR", "untouched")

	opts := DefaultOptions()
	if err := opts.Apply(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range opts.Pairs() {
		got := os.Getenv(p[0])
		if got != p[1] {
			t.Errorf("%s: expected %s, got %s", p[0], p[1], got)
		}
		if got == "" {
			t.Errorf("%s must not be empty after apply", p[0])
		}
	}

	if got := os.Getenv("UNRELATED_VAR"); got != "untouched" {
		t.Errorf("unrelated variable changed: got %s", got)
	}
}

func TestOptions_ApplyIdempotent(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug}
	for _, key := range keys {
		t.Setenv(key, "sentinel")
	}

	opts := DefaultOptions()
	if err := opts.Apply(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := snapshotEnv()

	if err := opts.Apply(); err != nil {
		t.Fatalf("unexpected error on second apply: %v", err)
	}
	second := snapshotEnv()

	if len(first) != len(second) {
		t.Fatalf("environment size changed between applies: %d vs %d", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("%s changed between applies: %s vs %s", k, v, second[k])
		}
	}
}

func TestOptions_ApplyOnlyTouchesOwnKeys(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug}
	for _, key := range keys {
		t.Setenv(key, "sentinel")
	}

	before := snapshotEnv()
	if err := DefaultOptions().Apply(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := snapshotEnv()

	if len(before) != len(after) {
		t.Fatalf("apply added or removed variables: %d before, %d after", len(before), len(after))
	}

	owned := map[string]bool{}
	for _, key := range keys {
		owned[key] = true
	}
	for k, v := range after {
		if before[k] == v {
			continue
		}
		if !owned[k] {
			t.Errorf("unrelated variable %s changed from %q to %q", k, before[k], v)
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{name: "complete", mutate: func(o *Options) {}, wantErr: false},
		{name: "empty database", mutate: func(o *Options) { o.Database = "" }, wantErr: true},
		{name: "empty hostname", mutate: func(o *Options) { o.Hostname = "" }, wantErr: true},
		{name: "empty username", mutate: func(o *Options) { o.Username = "" }, wantErr: true},
		{name: "empty password", mutate: func(o *Options) { o.Password = "" }, wantErr: true},
		{name: "empty debug", mutate: func(o *Options) { o.Debug = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestOptions_DebugEnabled(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"yes", true},
		{"y", true},
		{"YES", true},
		{"true", true},
		{"on", true},
		{"1", true},
		{"no", false},
		{"", false},
		{"0", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Debug = tt.value
			if got := opts.DebugEnabled(); got != tt.expected {
				t.Errorf("DebugEnabled(%q): expected %v, got %v", tt.value, tt.expected, got)
			}
		})
	}
}

func TestLoad_Layering(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug, "TSTPORT", "TSTPASSPHRASE"}
	for _, key := range keys {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	project := t.TempDir()
	envFile := filepath.Join(project, DefaultEnvFile)
	content := strings.Join([]string{
		"TSTDB=fromfile",
		"TSTPASSPHRASE=secret",
	}, "\n")
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	os.Setenv(EnvHostname, "db.example.test")
	os.Setenv("TSTPORT", "44444")

	cfg, err := Load(Flags{ProjectPath: project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Options.Database != "fromfile" {
		t.Errorf("expected database fromfile, got %s", cfg.Options.Database)
	}
	if cfg.Options.Hostname != "db.example.test" {
		t.Errorf("expected hostname db.example.test, got %s", cfg.Options.Hostname)
	}
	if cfg.Options.Username != DefaultUsername {
		t.Errorf("expected username %s, got %s", DefaultUsername, cfg.Options.Username)
	}
	if cfg.Passphrase != "secret" {
		t.Errorf("expected passphrase secret, got %s", cfg.Passphrase)
	}
	if cfg.Port != 44444 {
		t.Errorf("expected port 44444, got %d", cfg.Port)
	}
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug, "TSTPORT", "TSTPASSPHRASE"}
	for _, key := range keys {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	project := t.TempDir()
	envFile := filepath.Join(project, DefaultEnvFile)
	if err := os.WriteFile(envFile, []byte("TSTDB=fromfile\n"), 0644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	os.Setenv(EnvDatabase, "fromenv")

	cfg, err := Load(Flags{ProjectPath: project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Options.Database != "fromenv" {
		t.Errorf("expected database fromenv, got %s", cfg.Options.Database)
	}
}

func TestLoad_RejectsEmptyValue(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug, "TSTPORT", "TSTPASSPHRASE"}
	for _, key := range keys {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	os.Setenv(EnvDatabase, "")

	_, err := Load(Flags{ProjectPath: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for empty TSTDB, got nil")
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	keys := []string{EnvDatabase, EnvHostname, EnvUsername, EnvPassword, EnvDebug, "TSTPORT", "TSTPASSPHRASE"}
	for _, key := range keys {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	cfg, err := Load(Flags{ProjectPath: t.TempDir(), Processors: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Processors != 8 {
		t.Errorf("expected 8 processors, got %d", cfg.Processors)
	}
}

func snapshotEnv() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return env
}
