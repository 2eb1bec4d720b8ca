package policy

import (
	"regexp"
)

// PII shapes for audit-export redaction. Each gets a distinct placeholder.
// The name-pair heuristic is intentionally conservative and will both over-
// and under-match; that is accepted behavior for a pattern layer.
var (
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// Quoted "Firstname Lastname" pairs only.
	namePairRegex = regexp.MustCompile(`(["'])([A-Z][a-z]+ [A-Z][a-z]+)(["'])`)

	ibanRegex = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`)

	cardNumberRegex = regexp.MustCompile(`\b\d{4}[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{4}\b`)

	uuidRegex = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	ipv4Regex = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// Phone-shaped digit groups: at least eight digits with optional
	// separators, optionally prefixed with +country.
	phoneRegex = regexp.MustCompile(`(\+\d{1,3}[ \-/]?)?\(?\d{2,5}\)?[ \-/]\d{3,8}([ \-/]?\d{2,6})?\b`)
)

// PIIRules returns the built-in PII redaction rules in evaluation order.
// Order matters for overlapping shapes: card and IBAN run before the phone
// heuristic so structured financial identifiers keep their own placeholder.
func PIIRules() []Rule {
	return []Rule{
		{ID: "email", Regex: emailRegex, Category: CategoryPII, Replacement: "[EMAIL]", Builtin: true},
		{ID: "name-pair", Regex: namePairRegex, Category: CategoryPII, Replacement: "${1}[NAME]${3}", Builtin: true},
		{ID: "iban", Regex: ibanRegex, Category: CategoryPII, Replacement: "[IBAN]", Builtin: true},
		{ID: "card-number", Regex: cardNumberRegex, Category: CategoryPII, Replacement: "[CARD]", Builtin: true},
		{ID: "uuid", Regex: uuidRegex, Category: CategoryPII, Replacement: "[UUID]", Builtin: true},
		{ID: "ipv4", Regex: ipv4Regex, Category: CategoryPII, Replacement: "[IP]", Builtin: true},
		{ID: "phone", Regex: phoneRegex, Category: CategoryPII, Replacement: "[PHONE]", Builtin: true},
	}
}
