package utils

import "strings"

var quoteReplacer = strings.NewReplacer(
	"«", " ",
	"»", " ",
	"\"", " ",
	"'", " ",
	"„", " ",
	"“", " ",
	"”", " ",
)

// normalizeAlias lowercases the text, strips quote characters and collapses
// runs of whitespace so «ЖК  "Аква Сити"» and жк аква сити compare equal.
func normalizeAlias(s string) string {
	s = strings.ToLower(quoteReplacer.Replace(s))
	return strings.Join(strings.Fields(s), " ")
}

// MatchComplexNames returns the known complex names mentioned in the text,
// in catalog order. Matching is case-insensitive and ignores quotes, so a
// bare mention inside a sentence is enough.
func MatchComplexNames(text string, known []string) []string {
	normalized := normalizeAlias(text)
	if normalized == "" {
		return nil
	}

	var matched []string
	for _, name := range known {
		needle := normalizeAlias(name)
		if needle == "" {
			continue
		}
		if strings.Contains(normalized, needle) {
			matched = append(matched, name)
		}
	}
	return matched
}

// StripCodeFences removes a surrounding markdown code fence from model
// output. Models occasionally wrap structured answers in ``` blocks even
// when told not to.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the optional language tag on the opening fence line.
		first := strings.TrimSpace(trimmed[:idx])
		if !strings.ContainsAny(first, " \t") && len(first) <= 16 {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
