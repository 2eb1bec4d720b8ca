//go:build !cgo

package syntax

import (
	"fmt"
)

// Inspector extracts call sites from command text (no-op without CGo).
type Inspector struct{}

// Call is one call site found in the parsed text.
type Call struct {
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// NewInspector creates a new inspector (no-op without CGo).
func NewInspector() *Inspector {
	return &Inspector{}
}

// SupportsLanguage always returns false without CGo.
func (i *Inspector) SupportsLanguage(language string) bool {
	return false
}

// Calls always fails without CGo (tree-sitter unavailable). The caller's
// regex layer remains the authoritative check.
func (i *Inspector) Calls(code string, language string) ([]Call, error) {
	return nil, fmt.Errorf("syntax inspection unavailable without cgo")
}
