package usecases

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"whatsflow/internal/entities"
)

// NormalizeText lower-cases the text and strips diacritics, so that
// "HÓLA" and "hola" compare equal.
func NormalizeText(s string) string {
	// NFD decomposition, drop combining marks, recompose. The chain is
	// built per call because transformers are not safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s // malformed input: match on the raw text
	}
	return strings.ToLower(stripped)
}

// MatchKeyword returns the first rule (in table order) whose single-token
// keyword appears as a whole word in text, or nil for AI fallthrough.
// Pure function: the rule table is supplied by the caller.
func MatchKeyword(rules []entities.FlowRule, text string) *entities.FlowRule {
	tokens := strings.Fields(NormalizeText(text))
	if len(tokens) == 0 {
		return nil
	}

	words := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		words[tok] = struct{}{}
	}

	for i := range rules {
		keyword := NormalizeText(strings.TrimSpace(rules[i].Keyword))
		if keyword == "" {
			continue
		}
		if _, ok := words[keyword]; ok {
			return &rules[i]
		}
	}
	return nil
}
