//go:build cgo

package syntax

import (
	"fmt"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Inspector extracts call sites from command text using tree-sitter.
// It exists because regex signatures cannot see through indirection like
// aliased imports or variables holding a function; walking the syntax tree
// recovers the actually-called names. It remains advisory: the regex layer
// stays authoritative and fail-closed.
type Inspector struct {
	languages map[string]unsafe.Pointer
}

// Call is one call site found in the parsed text.
type Call struct {
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// NewInspector creates an Inspector supporting the bundled grammars.
func NewInspector() *Inspector {
	return &Inspector{
		languages: map[string]unsafe.Pointer{
			"go":         tree_sitter_go.Language(),
			"golang":     tree_sitter_go.Language(),
			"python":     tree_sitter_python.Language(),
			"py":         tree_sitter_python.Language(),
			"typescript": tree_sitter_typescript.LanguageTypescript(),
			"ts":         tree_sitter_typescript.LanguageTypescript(),
			"javascript": tree_sitter_typescript.LanguageTypescript(), // TypeScript parser handles JS
			"js":         tree_sitter_typescript.LanguageTypescript(),
			"bash":       tree_sitter_bash.Language(),
			"sh":         tree_sitter_bash.Language(),
			"shell":      tree_sitter_bash.Language(),
		},
	}
}

// SupportsLanguage checks if the inspector has a grammar for the language.
func (i *Inspector) SupportsLanguage(language string) bool {
	language = strings.ToLower(strings.TrimSpace(language))
	_, ok := i.languages[language]
	return ok
}

// Calls parses code and returns every call site. An unsupported language is
// an error so callers can distinguish "no calls" from "cannot inspect".
func (i *Inspector) Calls(code string, language string) ([]Call, error) {
	language = strings.ToLower(strings.TrimSpace(language))

	lang, ok := i.languages[language]
	if !ok {
		return nil, fmt.Errorf("language not supported for inspection: %s", language)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(lang)); err != nil {
		return nil, fmt.Errorf("failed to set parser language: %w", err)
	}

	sourceBytes := []byte(code)
	tree := parser.Parse(sourceBytes, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code: parser returned nil tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("failed to get root node from parsed tree")
	}

	var calls []Call

	var traverse func(*tree_sitter.Node)
	traverse = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}

		if name, ok := callName(n, sourceBytes); ok {
			pos := n.StartPosition()
			calls = append(calls, Call{
				Name:   name,
				Line:   int(pos.Row) + 1,
				Column: int(pos.Column) + 1,
			})
		}

		childCount := n.ChildCount()
		for c := uint(0); c < childCount; c++ {
			traverse(n.Child(c))
		}
	}

	traverse(root)

	return calls, nil
}

// callName extracts the called name for call-shaped nodes.
func callName(n *tree_sitter.Node, source []byte) (string, bool) {
	switch n.Kind() {
	case "call_expression", "call":
		fn := n.Child(0)
		if fn == nil {
			return "", false
		}
		return nodeText(fn, source), true
	case "command":
		childCount := n.ChildCount()
		for c := uint(0); c < childCount; c++ {
			child := n.Child(c)
			if child != nil && child.Kind() == "command_name" {
				return nodeText(child, source), true
			}
		}
	}
	return "", false
}

func nodeText(n *tree_sitter.Node, source []byte) string {
	start := n.StartByte()
	end := n.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}
