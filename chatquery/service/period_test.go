package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantDays  float64
		wantLabel string
	}{
		{"minutes", "messages from the last 90 minutes", 90.0 / 1440, "Last 90 minutes"},
		{"hours", "how many in the last 6 hours", 0.25, "Last 6 hours"},
		{"days", "summarize the last 3 days", 3, "Last 3 days"},
		{"24h shorthand", "stats for the past 24h", 1, "Last 24 hours"},
		{"24 hours", "past 24 hours please", 1, "Last 24 hours"},
		{"today", "show me stats for today", 1, "Today"},
		{"yesterday", "what came in yesterday", 1, "Yesterday"},
		{"week", "summarize this week", 7, "This week"},
		{"month", "how was this month", 30, "This month"},
		{"no period mentioned", "how many messages did I get", 7, "Last 7 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parsePeriod(tt.text, 7)
			assert.InDelta(t, tt.wantDays, p.Days, 1e-9)
			assert.Equal(t, tt.wantLabel, p.Label)
		})
	}
}

func TestParsePeriodExplicitWindowBeatsKeywords(t *testing.T) {
	// "last 2 days" wins over the trailing "week"
	p := parsePeriod("last 2 days of this week", 7)
	assert.Equal(t, float64(2), p.Days)
	assert.Equal(t, "Last 2 days", p.Label)
}

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"how many spam messages", "spam"},
		{"show me Business inquiries", "business"},
		{"any urgent stuff?", "urgent"},
		{"messages from fans", "fan"},
		{"how many messages total", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(tt.text))
		})
	}
}
