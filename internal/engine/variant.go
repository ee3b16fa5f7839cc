package engine

import (
	"strings"
	"unicode"

	"github.com/averycross/waygate/pkg/ports"
)

// detectVariant picks the root object name that best matches the requested
// destination id, by shared lowercase token count. Hosts ship several named
// variants of the same place (weather, damage states, seasonal dressing);
// bookkeeping wants the one actually present.
//
// Returns the context's own name when it already differs from the request
// (the host substituted a variant at load time), and "" when nothing scores.
func detectVariant(h ports.ContextHandle, requestedID string) string {
	if h == nil {
		return ""
	}
	if name := h.Name(); name != "" && !strings.EqualFold(name, requestedID) {
		return name
	}

	want := tokenize(requestedID)
	if len(want) == 0 {
		return ""
	}

	best := ""
	bestScore := 0
	for _, obj := range h.Roots() {
		score := 0
		for tok := range tokenize(obj.Name) {
			if want[tok] {
				score++
			}
		}
		// Strictly greater: ties keep the first (host object order).
		if score > bestScore {
			best = obj.Name
			bestScore = score
		}
	}
	return best
}

// tokenize splits an identifier on case boundaries and separators into a
// lowercase token set.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens[strings.ToLower(cur.String())] = true
			cur.Reset()
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	flush()
	return tokens
}
