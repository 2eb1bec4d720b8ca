package sanitize

import (
	"regexp"

	"github.com/codefionn/directguard/internal/policy"
)

// EnvAdvisory replaces the ENTIRE output when an environment-variable read
// is detected. Replacing only the matched call would still let surrounding
// text carry partial variable contents out, so the whole text is withheld.
const EnvAdvisory = "[ENVIRONMENT ACCESS BLOCKED] Output withheld: the text reads environment " +
	"variables, which may contain credentials. Inspect environment variables locally instead."

var envReadRegex = regexp.MustCompile(
	`\b(Sys\.getenv|os\.getenv|getenv|os\.Getenv|os\.Environ|os\.environ|process\.env)\b|\bprintenv\b|\$ENV\{`)

// Sanitizer applies the three policy rule pipelines to untrusted text.
// All methods are pure string transforms.
type Sanitizer struct {
	dangerous []policy.Rule
	secrets   []policy.Rule
	pii       []policy.Rule
}

// New creates a Sanitizer with the built-in rule sets.
func New() *Sanitizer {
	return &Sanitizer{
		dangerous: policy.DangerousRules(),
		secrets:   policy.SecretRules(),
		pii:       policy.PIIRules(),
	}
}

// AddPIIRules appends user-supplied PII rules after the built-ins. They are
// evaluated in definition order with identical semantics.
func (s *Sanitizer) AddPIIRules(rules []policy.UserRule) {
	s.pii = append(s.pii, policy.CompileUserRules(policy.CategoryPII, rules)...)
}

// AddSecretRules appends user-supplied secret rules after the built-ins.
func (s *Sanitizer) AddSecretRules(rules []policy.UserRule) {
	s.secrets = append(s.secrets, policy.CompileUserRules(policy.CategorySecret, rules)...)
}

// AddDangerousRules appends user-supplied blocking rules after the built-ins.
func (s *Sanitizer) AddDangerousRules(rules []policy.UserRule) {
	for _, r := range policy.CompileUserRules(policy.CategoryDangerous, rules) {
		r.Replacement = ""
		s.dangerous = append(s.dangerous, r)
	}
}

// IsDangerous checks command text against the dangerous-operation
// signatures. First match wins; the matched rule id is the block reason.
func (s *Sanitizer) IsDangerous(text string) (bool, string) {
	for _, rule := range s.dangerous {
		if rule.Regex.MatchString(text) {
			return true, rule.ID
		}
	}
	return false, ""
}

// RedactSecrets returns text with every credential-shaped match replaced in
// place. If the text reads environment variables anywhere, the whole text is
// replaced with EnvAdvisory instead.
func (s *Sanitizer) RedactSecrets(text string) string {
	if envReadRegex.MatchString(text) {
		return EnvAdvisory
	}

	for _, rule := range s.secrets {
		text = rule.Regex.ReplaceAllString(text, rule.Replacement)
	}
	return text
}

// RedactPII returns text with personal data replaced by placeholder tokens.
func (s *Sanitizer) RedactPII(text string) string {
	for _, rule := range s.pii {
		text = rule.Regex.ReplaceAllString(text, rule.Replacement)
	}
	return text
}
