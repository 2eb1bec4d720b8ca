package pathguard

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestGuard(t *testing.T, blocklist []string) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	g, err := New(root, blocklist)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", root, err)
	}
	return g, g.Root()
}

func TestValidate_TraversalAlwaysRejected(t *testing.T) {
	g, root := newTestGuard(t, nil)

	// "a/../b" collapses to root/b, which is inside the workspace, but the
	// raw string expressed traversal intent and must still be rejected.
	candidates := []string{
		"../../etc/passwd",
		"..",
		"a/../b",
		"sub/..",
		filepath.Join(root, "..", "other"),
	}

	for _, c := range candidates {
		v := g.Validate(c)
		if v.OK {
			t.Errorf("Validate(%q) = ok, want rejection", c)
		}
	}
}

func TestValidate_RelativeInsideRoot(t *testing.T) {
	g, root := newTestGuard(t, nil)

	v := g.Validate("notes.txt")
	if !v.OK {
		t.Fatalf("Validate(notes.txt) rejected: %s", v.Reason)
	}
	want := filepath.Join(root, "notes.txt")
	if v.Resolved != want {
		t.Errorf("resolved = %q, want %q", v.Resolved, want)
	}
}

func TestValidate_NestedNonexistentPath(t *testing.T) {
	g, root := newTestGuard(t, nil)

	v := g.Validate("a/b/c/new.txt")
	if !v.OK {
		t.Fatalf("nonexistent nested path rejected: %s", v.Reason)
	}
	if v.Resolved != filepath.Join(root, "a", "b", "c", "new.txt") {
		t.Errorf("unexpected resolution: %q", v.Resolved)
	}
}

func TestValidate_AbsoluteOutsideRoot(t *testing.T) {
	g, _ := newTestGuard(t, nil)

	outside := t.TempDir()
	v := g.Validate(filepath.Join(outside, "file.txt"))
	if v.OK {
		t.Errorf("path outside workspace accepted: %q", v.Resolved)
	}
}

func TestValidate_SiblingPrefixNotNested(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "workspace")
	sibling := filepath.Join(parent, "workspace2")
	for _, d := range []string{root, sibling} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	g, err := New(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	v := g.Validate(filepath.Join(sibling, "x.txt"))
	if v.OK {
		t.Errorf("/workspace2 must not match root /workspace")
	}
}

func TestValidate_SymlinkEscapeRejected(t *testing.T) {
	g, root := newTestGuard(t, nil)

	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(root, "innocent.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	v := g.Validate("innocent.txt")
	if v.OK {
		t.Errorf("symlink pointing outside workspace accepted, resolved to %q", v.Resolved)
	}
}

func TestValidate_SymlinkInsideRootAllowed(t *testing.T) {
	g, root := newTestGuard(t, nil)

	target := filepath.Join(root, "real.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "alias.txt")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	v := g.Validate("alias.txt")
	if !v.OK {
		t.Errorf("in-workspace symlink rejected: %s", v.Reason)
	}
	if v.Resolved != target {
		t.Errorf("resolved = %q, want symlink target %q", v.Resolved, target)
	}
}

func TestValidate_Blocklist(t *testing.T) {
	g, root := newTestGuard(t, []string{".ssh", ".aws"})

	if err := os.MkdirAll(filepath.Join(root, ".ssh"), 0700); err != nil {
		t.Fatal(err)
	}

	// Nested inside the workspace, still refused: the blocklist check is
	// additive to the nesting check.
	v := g.Validate(".ssh/id_rsa")
	if v.OK {
		t.Errorf("blocklisted path accepted: %q", v.Resolved)
	}

	v = g.Validate("sshconfig.txt")
	if !v.OK {
		t.Errorf("fragment must match whole segments only, got rejection: %s", v.Reason)
	}
}

func TestValidate_EmptyPath(t *testing.T) {
	g, _ := newTestGuard(t, nil)
	if v := g.Validate(""); v.OK {
		t.Errorf("empty path accepted")
	}
}

func TestValidate_RootItself(t *testing.T) {
	g, root := newTestGuard(t, nil)
	v := g.Validate(root)
	if !v.OK {
		t.Errorf("workspace root rejected: %s", v.Reason)
	}
}

func TestNew_MissingRootFailsClosed(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "does-not-exist"), nil); err == nil {
		t.Errorf("expected error for missing workspace root")
	}
}

func TestValidateFunc(t *testing.T) {
	root := t.TempDir()

	if v := Validate("../../etc/passwd", root); v.OK {
		t.Errorf("traversal accepted by package-level Validate")
	}
	if v := Validate("notes.txt", root); !v.OK {
		t.Errorf("plain relative path rejected: %s", v.Reason)
	}
}

func TestHasTraversal(t *testing.T) {
	for p, want := range map[string]bool{
		"..":        true,
		"../x":      true,
		"a/../b":    true,
		"a/..":      true,
		"a..b":      false,
		"..a/b":     false,
		"notes.txt": false,
		"a/b/c":     false,
	} {
		if got := hasTraversal(p); got != want {
			t.Errorf("hasTraversal(%q) = %v, want %v", p, got, want)
		}
	}
}
