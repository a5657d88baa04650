package recipe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	stepPattern     = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.*)$`)
	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?)\b`)
)

// Parse extracts ordered steps and named timers from free-form recipe text.
// Numbered lines ("1. ...", "2) ...") are preferred; if none match, every
// non-empty line becomes a step. Zero steps is a degenerate but valid recipe.
func Parse(raw string) Recipe {
	var steps []string
	for _, m := range stepPattern.FindAllStringSubmatch(raw, -1) {
		steps = append(steps, strings.TrimSpace(m[1]))
	}

	title := "Untitled"
	if len(steps) > 0 {
		// A leading non-numbered line is treated as the recipe title.
		if first := firstLine(raw); first != "" && !stepPattern.MatchString(first) {
			title = first
		}
	} else {
		for _, line := range strings.Split(raw, "\n") {
			if t := strings.TrimSpace(line); t != "" {
				steps = append(steps, t)
			}
		}
	}

	return Recipe{Title: title, Steps: steps, Timers: extractTimers(steps)}
}

// extractTimers registers one timer per step that mentions a duration.
// Labels follow the step index, e.g. "step 3".
func extractTimers(steps []string) []Timer {
	var timers []Timer
	for i, step := range steps {
		m := durationPattern.FindStringSubmatch(step)
		if m == nil {
			continue
		}
		minutes, err := strconv.Atoi(m[1])
		if err != nil || minutes <= 0 {
			continue
		}
		timers = append(timers, Timer{
			Label:    fmt.Sprintf("step %d", i+1),
			Duration: time.Duration(minutes) * time.Minute,
		})
	}
	return timers
}

func firstLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
