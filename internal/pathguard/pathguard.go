package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBlocklist lists path fragments that are refused regardless of
// workspace nesting. Credential and key material directories must never be
// reachable through the workspace, not even via symlinks placed inside it.
var DefaultBlocklist = []string{
	".ssh",
	".gnupg",
	".aws",
	".kube",
	".docker",
	".config/gcloud",
	".netrc",
	".pgpass",
}

// Verdict is the result of validating a single path candidate.
type Verdict struct {
	OK       bool
	Resolved string
	Reason   string
}

// Guard validates path candidates against one canonical workspace root.
// The root is resolved once at construction and never changes afterwards.
type Guard struct {
	root      string
	blocklist []string
}

// New creates a Guard for root. The root must exist; it is canonicalized
// (symlinks resolved) immediately so later per-candidate checks compare
// canonical forms only.
func New(root string, blocklist []string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize workspace root: %w", err)
	}
	if blocklist == nil {
		blocklist = DefaultBlocklist
	}
	return &Guard{root: canon, blocklist: blocklist}, nil
}

// Root returns the canonical workspace root.
func (g *Guard) Root() string {
	return g.root
}

// Validate checks a candidate path. Order is fixed: the raw string is
// checked for traversal tokens before any normalization, because a path that
// collapses to somewhere inside the root still expressed traversal intent.
// Every filesystem error fails closed.
func (g *Guard) Validate(candidate string) Verdict {
	if candidate == "" {
		return Verdict{Reason: "empty path"}
	}

	if hasTraversal(candidate) {
		return Verdict{Reason: "path contains parent-directory traversal"}
	}

	expanded, err := expandHome(candidate)
	if err != nil {
		return Verdict{Reason: fmt.Sprintf("cannot expand home directory: %v", err)}
	}

	var joined string
	if filepath.IsAbs(expanded) {
		joined = filepath.Clean(expanded)
	} else {
		joined = filepath.Join(g.root, expanded)
	}

	resolved, err := canonicalize(joined)
	if err != nil {
		return Verdict{Reason: fmt.Sprintf("cannot resolve path: %v", err)}
	}

	if !isNested(g.root, resolved) {
		return Verdict{Resolved: resolved, Reason: "path is outside the workspace"}
	}

	// Additive check: nesting alone does not clear a blocklisted location.
	if frag, hit := g.blockedFragment(candidate, resolved); hit {
		return Verdict{Resolved: resolved, Reason: fmt.Sprintf("path matches blocked entry %q", frag)}
	}

	return Verdict{OK: true, Resolved: resolved}
}

// Validate is a convenience wrapper constructing a throwaway Guard with the
// default blocklist.
func Validate(candidate, root string) Verdict {
	g, err := New(root, nil)
	if err != nil {
		return Verdict{Reason: fmt.Sprintf("invalid workspace root: %v", err)}
	}
	return g.Validate(candidate)
}

// hasTraversal reports whether any raw path segment is "..".
func hasTraversal(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// expandHome rewrites a leading ~ to the user home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

// canonicalize resolves symlinks and dot segments to a real absolute path.
// The leaf (or a trailing run of segments) may not exist yet, e.g. a file
// about to be created: symlinks are resolved for the deepest existing
// ancestor and the remainder is re-appended verbatim.
func canonicalize(p string) (string, error) {
	p = filepath.Clean(p)

	rest := ""
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if rest == "" {
				return resolved, nil
			}
			return filepath.Join(resolved, rest), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// isNested reports whether path equals root or lives under it, compared on
// whole path segments so /workspace2 never matches root /workspace.
func isNested(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// blockedFragment checks raw and resolved forms against the blocklist.
func (g *Guard) blockedFragment(raw, resolved string) (string, bool) {
	for _, frag := range g.blocklist {
		if frag == "" {
			continue
		}
		if containsFragment(raw, frag) || containsFragment(resolved, frag) {
			return frag, true
		}
	}
	return "", false
}

// containsFragment reports whether frag occurs as a run of whole path
// segments inside p.
func containsFragment(p, frag string) bool {
	norm := "/" + strings.Trim(filepath.ToSlash(p), "/") + "/"
	want := "/" + strings.Trim(filepath.ToSlash(frag), "/") + "/"
	return strings.Contains(norm, want)
}
