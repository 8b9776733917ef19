package scoring

import (
	"strings"
	"unicode"
)

// seniority markers checked against the title, most specific first.
var seniorityMarkers = []struct {
	word  string
	level string
}{
	{"principal", "principal"},
	{"staff", "staff"},
	{"senior", "senior"},
	{"sr", "senior"},
	{"lead", "lead"},
	{"junior", "junior"},
	{"jr", "junior"},
	{"intern", "junior"},
}

// Extract derives the technology token set and structural signals for a
// posting. vocab is the policy's technology vocabulary; tokens are matched
// whole-word and case-insensitively against title and description, and the
// canonical (policy) casing is kept in the result.
func Extract(title, description string, vocab []string) Extraction {
	text := strings.ToLower(title + " " + description)

	var techs []string
	seen := make(map[string]struct{}, len(vocab))
	for _, token := range vocab {
		key := strings.ToLower(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if containsWord(text, key) {
			techs = append(techs, token)
		}
	}

	return Extraction{
		Technologies: techs,
		Seniority:    seniorityFromTitle(strings.ToLower(title)),
		Remote:       containsWord(text, "remote"),
	}
}

func seniorityFromTitle(lowerTitle string) string {
	for _, m := range seniorityMarkers {
		if containsWord(lowerTitle, m.word) {
			return m.level
		}
	}
	return ""
}

// containsWord reports whether word occurs in text bounded by non-word
// characters. Both arguments must already be lowercased. Word boundaries
// are anything that is not a letter or digit, so tokens like "c++" and
// "node.js" still match whole mentions while "go" does not match "django".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)

		beforeOK := i == 0 || !isWordChar(rune(text[i-1]))
		afterOK := end == len(text) || !isWordChar(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
