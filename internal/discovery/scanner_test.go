package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()

	// Create suite directory structure
	testDirs := []string{
		"tests/unit",
		"tests/integration",
		"__pycache__",
		"venv",
	}
	for _, dir := range testDirs {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0755); err != nil {
			t.Fatalf("failed to create dir %s: %v", dir, err)
		}
	}

	// Create module files
	testFiles := []string{
		"runtests.py",
		"tests/unit/test_connect.py",
		"tests/integration/test_control.py",
		"tests/unit/__init__.py",
		"tests/conftest.py",
		"__pycache__/test_cached.py",
		"venv/lib/site.py",
		"README.md",
	}
	for _, file := range testFiles {
		fullPath := filepath.Join(tmpDir, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", file, err)
		}
		if err := os.WriteFile(fullPath, []byte("# module"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", file, err)
		}
	}

	scanner := NewScanner([]string{"__pycache__", "venv"})

	t.Run("scans modules correctly", func(t *testing.T) {
		results, err := scanner.Scan(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Should find runtests.py and the two test modules, nothing from
		// skipped directories and no __init__ or conftest files
		if len(results) != 3 {
			t.Errorf("expected 3 modules, got %d: %v", len(results), results)
		}

		for _, r := range results {
			base := filepath.Base(r)
			if base == "__init__.py" || base == "conftest.py" {
				t.Errorf("should not pick up %s", r)
			}
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := scanner.Scan("/non/existent/path")
		if err == nil {
			t.Error("expected error for non-existent directory")
		}
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "testfile.txt")
		os.WriteFile(testFile, []byte("test"), 0644)
		_, err := scanner.Scan(testFile)
		if err == nil {
			t.Error("expected error for file path")
		}
	})

	t.Run("skips hidden directories", func(t *testing.T) {
		hidden := filepath.Join(tmpDir, ".tox", "py3")
		if err := os.MkdirAll(hidden, 0755); err != nil {
			t.Fatalf("failed to create hidden dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(hidden, "test_hidden.py"), []byte("# module"), 0644); err != nil {
			t.Fatalf("failed to create hidden module: %v", err)
		}

		results, err := scanner.Scan(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range results {
			if filepath.Base(r) == "test_hidden.py" {
				t.Errorf("should not pick up modules under hidden directories: %s", r)
			}
		}
	})
}
