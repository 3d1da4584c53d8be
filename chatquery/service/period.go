package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Period is a lookback window extracted from a free-text question
type Period struct {
	Days  float64
	Label string
}

var (
	lastMinutesRe = regexp.MustCompile(`last\s+(\d+)\s+minute`)
	lastHoursRe   = regexp.MustCompile(`last\s+(\d+)\s+hour`)
	lastDaysRe    = regexp.MustCompile(`last\s+(\d+)\s+day`)
	twentyFourRe  = regexp.MustCompile(`24\s*h(our)?s?`)
)

// parsePeriod recognizes the common ways users phrase a time window and falls
// back to the configured default (7 days) otherwise.
func parsePeriod(text string, defaultDays float64) Period {
	lowered := strings.ToLower(text)

	if m := lastMinutesRe.FindStringSubmatch(lowered); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Period{Days: float64(n) / 1440, Label: fmt.Sprintf("Last %d minutes", n)}
	}
	if m := lastHoursRe.FindStringSubmatch(lowered); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Period{Days: float64(n) / 24, Label: fmt.Sprintf("Last %d hours", n)}
	}
	if m := lastDaysRe.FindStringSubmatch(lowered); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Period{Days: float64(n), Label: fmt.Sprintf("Last %d days", n)}
	}
	if twentyFourRe.MatchString(lowered) {
		return Period{Days: 1, Label: "Last 24 hours"}
	}
	if strings.Contains(lowered, "today") {
		return Period{Days: 1, Label: "Today"}
	}
	if strings.Contains(lowered, "yesterday") {
		return Period{Days: 1, Label: "Yesterday"}
	}
	if strings.Contains(lowered, "week") {
		return Period{Days: 7, Label: "This week"}
	}
	if strings.Contains(lowered, "month") {
		return Period{Days: 30, Label: "This month"}
	}

	return Period{Days: defaultDays, Label: fmt.Sprintf("Last %d days", int(defaultDays))}
}

// extractCategory is a plain substring test against the known categories,
// first match wins. Returns empty when no category is mentioned.
func extractCategory(text string) string {
	lowered := strings.ToLower(text)
	for _, category := range []string{"fan", "business", "spam", "urgent"} {
		if strings.Contains(lowered, category) {
			return category
		}
	}
	return ""
}
