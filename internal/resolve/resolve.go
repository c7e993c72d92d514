// Package resolve maps natural-language references in a chat message to a
// stored goal or task. Resolution runs a fixed cascade: exact title
// containment, token-overlap scoring, ordinal references, then a
// single-candidate fallback. The first step that produces a match wins.
package resolve

import (
	"regexp"
	"strings"
)

// Candidate is a goal or task eligible for resolution.
type Candidate struct {
	ID    string
	Title string
}

// Match-ratio thresholds for the token-overlap step. Goal titles tend to be
// shorter and more generic than task titles, so goals accept a looser match.
const (
	GoalRatioThreshold = 0.4
	TaskRatioThreshold = 0.5

	// minOverlapCount accepts a candidate outright regardless of ratio.
	minOverlapCount = 3
)

var (
	ordinalPattern = regexp.MustCompile(`\b(?:goal|task|number|item|no\.?|#)\s*(\d+)\b`)
	hashPattern    = regexp.MustCompile(`#(\d+)`)

	namedOrdinals = []string{
		"first", "second", "third", "fourth", "fifth",
		"sixth", "seventh", "eighth", "ninth", "tenth",
	}

	genericTargets = []string{"goal", "task", "it", "this", "that", "item", "one"}
)

// Goal resolves a goal reference using the goal ratio threshold.
func Goal(message string, candidates []Candidate) (Candidate, bool) {
	return resolveWith(message, candidates, GoalRatioThreshold)
}

// Task resolves a task reference using the task ratio threshold.
func Task(message string, candidates []Candidate) (Candidate, bool) {
	return resolveWith(message, candidates, TaskRatioThreshold)
}

func resolveWith(message string, candidates []Candidate, ratioThreshold float64) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	lower := strings.ToLower(message)

	// Step 1: the full candidate title appears verbatim in the message.
	for _, c := range candidates {
		title := strings.ToLower(strings.TrimSpace(c.Title))
		if title != "" && strings.Contains(lower, title) {
			return c, true
		}
	}

	// Step 2: token overlap between message and candidate titles.
	if c, ok := byTokenOverlap(lower, candidates, ratioThreshold); ok {
		return c, true
	}

	// Step 3: explicit ordinal references, 1-based.
	if idx, ok := ordinalIndex(lower); ok && idx >= 1 && idx <= len(candidates) {
		return candidates[idx-1], true
	}
	if strings.Contains(lower, "last") && len(candidates) > 0 {
		return candidates[len(candidates)-1], true
	}

	// Step 4: a lone candidate plus any generic target word is unambiguous.
	if len(candidates) == 1 && hasGenericTarget(lower) {
		return candidates[0], true
	}

	return Candidate{}, false
}

// byTokenOverlap scores each candidate by how many of its title tokens appear
// in the message. Tokens shorter than three characters are ignored, and two
// tokens overlap when either contains the other ("running" matches "run").
// A candidate qualifies with at least minOverlapCount overlapping tokens or an
// overlap ratio at or above the threshold; the highest raw count wins, with
// ties going to the earlier candidate.
func byTokenOverlap(lower string, candidates []Candidate, ratioThreshold float64) (Candidate, bool) {
	messageTokens := tokenize(lower)
	if len(messageTokens) == 0 {
		return Candidate{}, false
	}

	best := -1
	bestCount := 0
	for i, c := range candidates {
		titleTokens := tokenize(strings.ToLower(c.Title))
		if len(titleTokens) == 0 {
			continue
		}
		count := 0
		for _, tt := range titleTokens {
			for _, mt := range messageTokens {
				if strings.Contains(mt, tt) || strings.Contains(tt, mt) {
					count++
					break
				}
			}
		}
		if count == 0 {
			continue
		}
		ratio := float64(count) / float64(len(titleTokens))
		if count >= minOverlapCount || ratio >= ratioThreshold {
			if count > bestCount {
				best = i
				bestCount = count
			}
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return candidates[best], true
}

func ordinalIndex(lower string) (int, bool) {
	if m := ordinalPattern.FindStringSubmatch(lower); m != nil {
		return atoiSafe(m[1])
	}
	if m := hashPattern.FindStringSubmatch(lower); m != nil {
		return atoiSafe(m[1])
	}
	words := wordSet(lower)
	for i, word := range namedOrdinals {
		if words[word] {
			return i + 1, true
		}
	}
	return 0, false
}

func hasGenericTarget(lower string) bool {
	words := wordSet(lower)
	for _, word := range genericTargets {
		if words[word] {
			return true
		}
	}
	return false
}

// wordSet returns every alphanumeric word in the text, unfiltered by length.
func wordSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range tokenPattern.FindAllString(lower, -1) {
		set[w] = true
	}
	return set
}

func atoiSafe(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n > 0
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize splits lowercased text into alphanumeric words longer than two
// characters.
func tokenize(lower string) []string {
	var tokens []string
	for _, w := range tokenPattern.FindAllString(lower, -1) {
		if len(w) > 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
