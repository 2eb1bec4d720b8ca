package sanitize

import (
	"math"
	"strings"
)

// DefaultEntropyThreshold is a reasonable default for base64-like secrets.
const DefaultEntropyThreshold = 4.5

// CalculateEntropy calculates the Shannon entropy of a string.
func CalculateEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}

	length := float64(len(s))
	var entropy float64

	for _, count := range counts {
		freq := float64(count) / length
		entropy -= freq * math.Log2(freq)
	}

	return entropy
}

// HighEntropyTokens splits text into tokens and returns those exceeding the
// threshold. Pattern rules miss unstructured secrets; this heuristic catches
// random-looking tokens so callers can warn. Advisory only, never a block.
func HighEntropyTokens(text string, threshold float64) []string {
	f := func(c rune) bool {
		return c == ' ' || c == '\n' || c == '\t' || c == '"' || c == '\'' ||
			c == '=' || c == ':' || c == ',' || c == ';' || c == '<' || c == '>' ||
			c == '(' || c == ')' || c == '[' || c == ']' || c == '{' || c == '}'
	}

	tokens := strings.FieldsFunc(text, f)
	var highEntropyTokens []string

	for _, token := range tokens {
		// Short tokens are too noisy
		if len(token) < 16 {
			continue
		}

		if CalculateEntropy(token) > threshold {
			highEntropyTokens = append(highEntropyTokens, token)
		}
	}

	return highEntropyTokens
}
