package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParser_FindTestCases(t *testing.T) {
	parser := NewParser()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test_control.py")
	moduleContent := `import unittest


def test_module_level():
    assert True


async def test_async_case():
    assert True


def helper_function():
    return 1


class TestControl(unittest.TestCase):
    def test_create(self):
        self.assertTrue(True)

    def test_destroy(self):
        self.assertTrue(True)

    def setUp(self):
        pass
`
	if err := os.WriteFile(testFile, []byte(moduleContent), 0644); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}

	t.Run("finds test cases", func(t *testing.T) {
		cases, err := parser.FindTestCases(testFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := make(map[string]bool)
		for _, c := range cases {
			found[c] = true
		}

		expected := []string{"test_module_level", "test_async_case", "test_create", "test_destroy"}
		for _, name := range expected {
			if !found[name] {
				t.Errorf("expected to find test case %s in %v", name, cases)
			}
		}

		if found["helper_function"] {
			t.Error("should not find helper_function as a test case")
		}
		if found["setUp"] {
			t.Error("should not find setUp as a test case")
		}
	})

	t.Run("returns sorted unique names", func(t *testing.T) {
		cases, err := parser.FindTestCases(testFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i < len(cases); i++ {
			if cases[i-1] >= cases[i] {
				t.Errorf("cases not sorted: %v", cases)
				break
			}
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		_, err := parser.FindTestCases("/non/existent/module.py")
		if err == nil {
			t.Error("expected error for non-existent file")
		}
	})
}
