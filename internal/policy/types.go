package policy

import (
	"fmt"
	"regexp"

	"github.com/codefionn/directguard/internal/logger"
)

// Category identifies which enforcement surface a rule belongs to.
type Category string

const (
	// CategoryDangerous rules block command text before execution.
	CategoryDangerous Category = "dangerous-op"
	// CategorySecret rules redact credential-shaped text shown to the model.
	CategorySecret Category = "secret"
	// CategoryPII rules redact personal data in audit exports.
	CategoryPII Category = "pii"
)

// Rule is a single pattern-based policy entry. A rule with an empty
// Replacement blocks on match; a non-empty Replacement redacts in place.
// This layer is best-effort pattern matching, not semantic analysis:
// expression-level obfuscation can evade it.
type Rule struct {
	ID          string
	Regex       *regexp.Regexp
	Category    Category
	Replacement string
	Builtin     bool
}

// Blocks reports whether a match on this rule refuses the operation
// instead of rewriting the text.
func (r Rule) Blocks() bool {
	return r.Replacement == ""
}

// UserRule is an uncompiled pattern/replacement pair from configuration.
type UserRule struct {
	Pattern     string
	Replacement string
}

// CompileUserRules compiles user-supplied rules for a category and appends
// nothing for entries that fail to compile. Built-ins always evaluate first;
// user rules keep their definition order after them.
func CompileUserRules(category Category, rules []UserRule) []Rule {
	compiled := make([]Rule, 0, len(rules))
	for i, ur := range rules {
		re, err := regexp.Compile(ur.Pattern)
		if err != nil {
			logger.Warn("policy: skipping invalid user pattern %q: %v", ur.Pattern, err)
			continue
		}
		compiled = append(compiled, Rule{
			ID:          userRuleID(category, i),
			Regex:       re,
			Category:    category,
			Replacement: ur.Replacement,
		})
	}
	return compiled
}

func userRuleID(category Category, idx int) string {
	return fmt.Sprintf("user-%s-%d", category, idx)
}
