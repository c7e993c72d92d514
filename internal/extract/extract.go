// Package extract pulls task titles out of assistant replies. It understands
// the list shapes the coach prompt asks for plus the common variants models
// produce anyway: numbered lists, bullet lists, and "Task N:" labels.
package extract

import (
	"regexp"
	"strings"
)

var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`),
	regexp.MustCompile(`^\s*[•\-*]\s+(.+)$`),
	regexp.MustCompile(`(?i)^\s*task\s+\d+:\s*(.+)$`),
}

// TaskTitles scans the reply line by line and returns the task titles found,
// in reply order. Each line yields at most one title (first matching pattern
// wins) and exact duplicates are dropped, keeping the first occurrence.
func TaskTitles(reply string) []string {
	var titles []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(reply, "\n") {
		title, ok := matchLine(line)
		if !ok {
			continue
		}
		if seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

func matchLine(line string) (string, bool) {
	for _, p := range linePatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			title = strings.Trim(title, "*_`")
			if title != "" {
				return title, true
			}
		}
	}
	return "", false
}
