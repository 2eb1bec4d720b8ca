package syntax

import (
	"testing"
)

func TestCalls_Bash(t *testing.T) {
	insp := NewInspector()
	if !insp.SupportsLanguage("bash") {
		t.Skip("built without cgo, no parser available")
	}

	calls, err := insp.Calls("rm -rf /tmp/x\necho done", "bash")
	if err != nil {
		t.Fatalf("Calls failed: %v", err)
	}

	names := make(map[string]bool)
	for _, c := range calls {
		names[c.Name] = true
	}
	if !names["rm"] {
		t.Errorf("expected rm call, got %v", calls)
	}
	if !names["echo"] {
		t.Errorf("expected echo call, got %v", calls)
	}
}

func TestCalls_Python(t *testing.T) {
	insp := NewInspector()
	if !insp.SupportsLanguage("python") {
		t.Skip("built without cgo, no parser available")
	}

	calls, err := insp.Calls("import os\nos.unlink('x')\nprint('ok')", "python")
	if err != nil {
		t.Fatalf("Calls failed: %v", err)
	}

	var found bool
	for _, c := range calls {
		if c.Name == "os.unlink" {
			found = true
			if c.Line != 2 {
				t.Errorf("os.unlink reported on line %d, want 2", c.Line)
			}
		}
	}
	if !found {
		t.Errorf("expected os.unlink call, got %v", calls)
	}
}

func TestCalls_UnknownLanguage(t *testing.T) {
	insp := NewInspector()
	if insp.SupportsLanguage("cobol") {
		t.Fatalf("unexpected cobol support")
	}
	if _, err := insp.Calls("x", "cobol"); err == nil {
		t.Errorf("expected error for unsupported language")
	}
}

func TestSupportsLanguage_Aliases(t *testing.T) {
	insp := NewInspector()
	if !insp.SupportsLanguage("bash") {
		t.Skip("built without cgo, no parser available")
	}
	for _, alias := range []string{"sh", "shell", "py", "golang", "ts"} {
		if !insp.SupportsLanguage(alias) {
			t.Errorf("alias %q not supported", alias)
		}
	}
}
