package normalization

import (
	"strings"
)

// NormalizeDomain reduces a raw domain string to its canonical key: trimmed,
// lowercased, schemes and leading "www." labels stripped, trailing slashes
// removed. Stripping repeats until the string stops changing, so the result is
// a fixpoint and stored keys never drift when re-normalized. Purely syntactic;
// no DNS or TLD validation happens here.
func NormalizeDomain(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for {
		next := strings.TrimPrefix(normalized, "https://")
		next = strings.TrimPrefix(next, "http://")
		next = strings.TrimPrefix(next, "www.")
		next = strings.TrimSuffix(next, "/")
		if next == normalized {
			return normalized
		}
		normalized = next
	}
}

// NormalizeDomains maps NormalizeDomain over a candidate list, dropping entries
// that normalize to the empty string and collapsing duplicates. Order of first
// appearance is preserved.
func NormalizeDomains(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		d := NormalizeDomain(r)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// ParseDomainList splits pasted free-form text into normalized candidate
// domains. Entries may be separated by newlines, commas, semicolons, or runs
// of whitespace; the result is deduplicated in order of first appearance.
func ParseDomainList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	return NormalizeDomains(fields)
}
