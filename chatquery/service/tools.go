package service

import (
	"fmt"
	"strings"
	"time"

	inbox "inbox-agent/backend/inbox/models"
)

// inboxStats aggregates the message store over a time window
type inboxStats struct {
	Total       int64
	ByCategory  []inbox.CategoryCount
	BySentiment []inbox.SentimentCount
	ByChat      []inbox.ChatCount
}

func (d *Dispatcher) collectStats(userID string, period Period, category string) (*inboxStats, error) {
	since := time.Now().Add(-time.Duration(period.Days * 24 * float64(time.Hour)))

	total, err := d.messages.CountSince(userID, since)
	if err != nil {
		return nil, err
	}
	byCategory, err := d.messages.CountByCategory(userID, since)
	if err != nil {
		return nil, err
	}
	bySentiment, err := d.messages.CountBySentiment(userID, since)
	if err != nil {
		return nil, err
	}
	byChat, err := d.messages.CountByChat(userID, since)
	if err != nil {
		return nil, err
	}

	if category != "" {
		var filtered []inbox.CategoryCount
		for _, c := range byCategory {
			if c.Category == category {
				filtered = append(filtered, c)
			}
		}
		byCategory = filtered
	}

	return &inboxStats{
		Total:       total,
		ByCategory:  byCategory,
		BySentiment: bySentiment,
		ByChat:      byChat,
	}, nil
}

func renderSearch(term string, period Period, results []inbox.Message) string {
	if len(results) == 0 {
		return fmt.Sprintf("No messages mentioning %q found (%s).", term, strings.ToLower(period.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d message(s) mentioning %q (%s):\n", len(results), term, strings.ToLower(period.Label))
	for _, msg := range results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", displayName(msg), msg.Timestamp.Format("Jan 2 15:04"), truncate(msg.Text, 80))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(period Period, category string, stats *inboxStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inbox stats — %s\n", period.Label)
	if category != "" {
		count := int64(0)
		for _, c := range stats.ByCategory {
			count += c.Count
		}
		fmt.Fprintf(&b, "%s messages: %d\n", capitalize(category), count)
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "Total messages received: %d\n", stats.Total)
	if len(stats.ByCategory) > 0 {
		b.WriteString("By category:\n")
		for _, c := range stats.ByCategory {
			fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Count)
		}
	}
	if len(stats.BySentiment) > 0 {
		b.WriteString("By sentiment:\n")
		for _, c := range stats.BySentiment {
			fmt.Fprintf(&b, "- %s: %d\n", c.Sentiment, c.Count)
		}
	}
	fmt.Fprintf(&b, "Active conversations: %d", len(stats.ByChat))
	return b.String()
}

func renderSummary(period Period, stats *inboxStats, priority []inbox.PriorityChat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inbox summary — %s\n", period.Label)
	fmt.Fprintf(&b, "You received %d message(s) across %d conversation(s).\n", stats.Total, len(stats.ByChat))
	for _, c := range stats.ByCategory {
		fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Count)
	}
	if len(priority) > 0 {
		fmt.Fprintf(&b, "%d conversation(s) look worth prioritizing.", len(priority))
	} else {
		b.WriteString("Nothing urgent is waiting on you.")
	}
	return b.String()
}

func renderPriority(chats []inbox.PriorityChat) string {
	if len(chats) == 0 {
		return "No high-priority conversations right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d high-priority conversation(s):\n", len(chats))
	for _, chat := range chats {
		name := chat.SenderName
		if name == "" {
			name = chat.SenderID
		}
		fmt.Fprintf(&b, "- %s (score %d/10): %s\n", name, chat.CollaborationScore, truncate(chat.Text, 80))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBusiness(period Period, stats *inboxStats, priority []inbox.PriorityChat) string {
	count := int64(0)
	for _, c := range stats.ByCategory {
		count += c.Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Business opportunities — %s\n", period.Label)
	fmt.Fprintf(&b, "Business messages received: %d\n", count)
	if len(priority) > 0 {
		fmt.Fprintf(&b, "Top prospects:\n")
		for _, chat := range priority {
			name := chat.SenderName
			if name == "" {
				name = chat.SenderID
			}
			fmt.Fprintf(&b, "- %s (score %d/10)\n", name, chat.CollaborationScore)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func displayName(msg inbox.Message) string {
	if msg.SenderName != "" {
		return msg.SenderName
	}
	return msg.SenderID
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
