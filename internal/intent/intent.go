// Package intent detects user intent from free-form chat messages using
// keyword and pattern heuristics. It is a best-effort classifier with
// documented false-positive/negative tolerance, not a parser: a phrase match
// is sufficient regardless of surrounding context, and negation is not
// handled ("I don't want to quit" still reads as a goal expression).
package intent

import (
	"regexp"
	"strings"
)

// createGoalPhrases express desire or need for a new goal.
var createGoalPhrases = []string{
	"i want to",
	"i need",
	"i'd like to",
	"i would like to",
	"help me",
	"my goal is",
	"my objective is",
	"i'm trying to",
	"i am trying to",
	"i wish to",
	"i plan to",
}

// deletionVerbs signal removal of a goal or task.
var deletionVerbs = []string{
	"remove", "delete", "cancel", "drop", "trash",
	"erase", "destroy", "wipe", "clear", "get rid of", "scrap",
}

// editVerbs signal an attribute change on a task.
var editVerbs = []string{
	"edit", "change", "update", "modify", "rename",
	"adjust", "revise", "set",
}

// completionKeywords signal a task being marked done.
var completionKeywords = []string{
	"complete", "completed", "finish", "finished",
	"done", "mark", "check off", "tick off",
}

// goalVocabulary identifies goal-level targets.
var goalVocabulary = []string{"goal", "project", "objective"}

// taskVocabulary identifies task-level targets.
var taskVocabulary = []string{"task", "to-do", "todo", "item", "step"}

var (
	goalNumberPattern = regexp.MustCompile(`\bgoal\s+\d+\b`)
	taskNumberPattern = regexp.MustCompile(`\btask\s+\d+\b|#\d+`)
	bareItPattern     = regexp.MustCompile(`\bit\b`)
)

// DetectCreateGoal reports whether the message expresses a new goal.
func DetectCreateGoal(message string) bool {
	lower := normalize(message)
	if lower == "" {
		return false
	}
	for _, phrase := range createGoalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// DetectRemoveGoal reports whether the message asks to delete a goal.
// It requires a deletion verb plus goal vocabulary or a "goal N" pattern.
func DetectRemoveGoal(message string) bool {
	lower := normalize(message)
	if lower == "" {
		return false
	}
	if !hasAny(lower, deletionVerbs) {
		return false
	}
	return hasAny(lower, goalVocabulary) || goalNumberPattern.MatchString(lower)
}

// DetectRemoveTask reports whether the message asks to delete a task.
// Goal intent takes precedence: a message that satisfies DetectRemoveGoal is
// never a task removal.
func DetectRemoveTask(message string) bool {
	lower := normalize(message)
	if lower == "" {
		return false
	}
	if !hasAny(lower, deletionVerbs) {
		return false
	}
	if DetectRemoveGoal(message) {
		return false
	}
	return hasTaskTarget(lower)
}

// DetectCompleteTask reports whether the message marks a task as done.
func DetectCompleteTask(message string) bool {
	lower := normalize(message)
	if lower == "" {
		return false
	}
	return hasAny(lower, completionKeywords) && hasTaskTarget(lower)
}

// DetectEditTask reports whether the message edits a task, including the
// completion sub-case. Completion keywords are checked first and re-use the
// task-target signal check.
func DetectEditTask(message string) bool {
	lower := normalize(message)
	if lower == "" {
		return false
	}
	if DetectCompleteTask(message) {
		return true
	}
	return hasAny(lower, editVerbs) && hasTaskTarget(lower)
}

// hasTaskTarget reports whether the message names a task-level target:
// task vocabulary, a bare "it" reference, or a "task N" / "#N" pattern.
func hasTaskTarget(lower string) bool {
	if hasAny(lower, taskVocabulary) {
		return true
	}
	if bareItPattern.MatchString(lower) {
		return true
	}
	return taskNumberPattern.MatchString(lower)
}

func hasAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}
