// Package classify assigns a response type to assistant replies so the
// orchestrator knows whether a reply carries extractable tasks. Checks run in
// strict priority order and the first hit wins.
package classify

import (
	"strings"

	"github.com/stridehq/stride/types"
)

var interrogatives = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"could", "would", "should", "can", "do you", "are you", "have you",
}

var encouragementPhrases = []string{
	"great job", "great work", "well done", "good job", "good work",
	"proud of you", "keep it up", "keep going", "you've got this",
	"congratulations", "amazing progress", "nice work",
}

// Response classifies an assistant reply. Task signals outrank questions,
// questions outrank encouragement, and anything else is general conversation.
func Response(reply string) types.ResponseType {
	lower := strings.ToLower(reply)

	if strings.Contains(lower, "task") {
		// Past tense means tasks already exist; check it before the
		// suggestion keywords since "created" contains "create". "added" is
		// deliberately grouped with "created" for the same reason: a reply
		// saying tasks were added reports a done deed, not a proposal, even
		// though "added" also contains "add".
		if strings.Contains(lower, "created") || strings.Contains(lower, "added") {
			return types.ResponseTaskCreation
		}
		if strings.Contains(lower, "create") || strings.Contains(lower, "add") ||
			strings.Contains(lower, "suggest") {
			return types.ResponseTaskSuggestion
		}
	}

	if strings.Contains(reply, "?") && hasAny(lower, interrogatives) {
		return types.ResponseQuestion
	}

	if hasAny(lower, encouragementPhrases) {
		return types.ResponseEncouragement
	}

	return types.ResponseGeneral
}

func hasAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
