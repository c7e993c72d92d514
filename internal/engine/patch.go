package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stridehq/stride/models"
)

// Keyword tables for complexity edits. Priority keywords are applied first,
// difficulty keywords second, so a message carrying both ("urgent but easy")
// lands on the difficulty value. "not urgent" must sort before "urgent" since
// matching is substring based.
var priorityKeywords = []struct {
	keyword string
	value   models.Complexity
}{
	{"not urgent", models.ComplexityLow},
	{"low priority", models.ComplexityLow},
	{"urgent", models.ComplexityHigh},
	{"important", models.ComplexityHigh},
	{"critical", models.ComplexityHigh},
	{"high priority", models.ComplexityHigh},
	{"moderate", models.ComplexityMedium},
	{"medium priority", models.ComplexityMedium},
}

var difficultyKeywords = []struct {
	keyword string
	value   models.Complexity
}{
	{"hard", models.ComplexityHigh},
	{"challenging", models.ComplexityHigh},
	{"difficult", models.ComplexityHigh},
	{"complex", models.ComplexityHigh},
	{"basic", models.ComplexityLow},
	{"simple", models.ComplexityLow},
	{"easy", models.ComplexityLow},
	{"trivial", models.ComplexityLow},
}

var minutesPattern = regexp.MustCompile(`\b(\d+)\s*min(?:ute)?s?\b`)

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:to|as)\s+"([^"]+)"`),
	regexp.MustCompile(`(?i)\b(?:to|as)\s+'([^']+)'`),
	regexp.MustCompile(`(?i)\brename\b.*?\bto\s+(.+)$`),
	regexp.MustCompile(`(?i)\bchange\b.*?\b(?:title|name)\s+to\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:call|name)\s+it\s+(.+)$`),
	regexp.MustCompile(`(?i)\bmake\s+it\s+(.+)$`),
}

// ParseTaskPatch extracts attribute edits from a free-form message. Parsing
// order is fixed: complexity (priority keywords then difficulty keywords,
// last match wins), time estimate, due date, title.
func ParseTaskPatch(message string, now time.Time) models.TaskPatch {
	var patch models.TaskPatch
	lower := strings.ToLower(message)

	if c, ok := parseComplexity(lower); ok {
		patch.Complexity = &c
	}
	if minutes, ok := parseMinutes(lower); ok {
		patch.TimeEstimateMinutes = &minutes
	}
	if due, ok := parseDueDate(lower, now); ok {
		patch.DueDate = &due
	}
	if title, ok := parseTitle(message); ok {
		patch.Title = &title
	}
	return patch
}

func parseComplexity(lower string) (models.Complexity, bool) {
	var value models.Complexity
	found := false
	for _, pk := range priorityKeywords {
		if strings.Contains(lower, pk.keyword) {
			value = pk.value
			found = true
			break
		}
	}
	for _, dk := range difficultyKeywords {
		if strings.Contains(lower, dk.keyword) {
			value = dk.value
			found = true
			break
		}
	}
	return value, found
}

func parseMinutes(lower string) (int, bool) {
	m := minutesPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil || minutes <= 0 {
		return 0, false
	}
	return minutes, true
}

// parseDueDate resolves relative date phrases against the given reference
// time. The first phrase in the fixed order today, tomorrow, next week wins.
func parseDueDate(lower string, now time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(lower, "today"):
		return now, true
	case strings.Contains(lower, "tomorrow"):
		return now.Add(24 * time.Hour), true
	case strings.Contains(lower, "next week"):
		return now.Add(7 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

func parseTitle(message string) (string, bool) {
	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(message); m != nil {
			title := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `"'.`))
			if title != "" {
				return title, true
			}
		}
	}
	return "", false
}
