package adapter

import (
	"sort"
	"strings"
	"unicode"
)

// ApplyStyle runs the profile's deterministic text transformations on
// a message: tone substitution, vocabulary substitution, optional
// sentence splitting, then emoji handling. Transform order matters:
// vocabulary runs after tone so tone phrases are matched verbatim.
func ApplyStyle(profile StyleProfile, message string) string {
	out := message

	out = applySubstitutions(out, profile.Softeners)
	out = applySubstitutions(out, profile.Strengtheners)
	out = applySubstitutions(out, profile.Vocabulary)

	if profile.SplitSentences {
		out = splitCompound(out)
	}

	out = collapseSpaces(out)

	if len(profile.Emoji) > 0 {
		// Deterministic pick: message length indexes the emoji list.
		out = strings.TrimRight(out, " ") + " " + profile.Emoji[len(message)%len(profile.Emoji)]
	} else {
		out = stripEmoji(out)
	}
	return strings.TrimSpace(out)
}

// RenderTemplate fills the profile's first template with the message.
// Profiles without templates pass the message through.
func RenderTemplate(profile StyleProfile, message string) string {
	if len(profile.Templates) == 0 {
		return message
	}
	return strings.ReplaceAll(profile.Templates[0], "{message}", message)
}

// applySubstitutions applies phrase substitutions longest-phrase-first
// so "you might want to" wins over "you might". Sorting also makes the
// transform deterministic regardless of map iteration order.
func applySubstitutions(s string, m map[string]string) string {
	if len(m) == 0 {
		return s
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s = replaceFold(s, k, m[k])
	}
	return s
}

// replaceFold replaces whole occurrences of from, case-insensitively
// on the first rune, preserving a leading capital.
func replaceFold(s, from, to string) string {
	if from == "" {
		return s
	}
	out := strings.ReplaceAll(s, from, to)
	// Capitalized occurrence at sentence starts.
	capFrom := capitalize(from)
	if capFrom != from {
		out = strings.ReplaceAll(out, capFrom, capitalize(to))
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// splitCompound breaks ", and "/", but " joins into separate short
// sentences.
func splitCompound(s string) string {
	out := strings.ReplaceAll(s, ", and ", ". ")
	out = strings.ReplaceAll(out, ", but ", ". ")
	// Re-capitalize after the inserted sentence breaks.
	parts := strings.Split(out, ". ")
	for i, p := range parts {
		parts[i] = capitalize(strings.TrimSpace(p))
	}
	return strings.Join(parts, ". ")
}

// collapseSpaces squeezes runs of spaces left behind by empty
// substitutions.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripEmoji removes emoji and pictographic runes.
func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x1F300 && r <= 0x1FAFF || r >= 0x2600 && r <= 0x27BF || r == 0xFE0F {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
