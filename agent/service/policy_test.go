package service

import (
	"context"
	"testing"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/ai"

	"github.com/stretchr/testify/assert"
)

func TestDecidePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		faqMatch  FAQMatch
		category  string
		sentiment string
		score     int
		wantType  string
	}{
		{
			name:     "faq match outranks urgent category",
			faqMatch: FAQMatch{Matched: true, Question: "Do you ship overseas?", Answer: "Yes, worldwide."},
			category: "urgent",
			score:    2,
			wantType: models.ActionRespond,
		},
		{
			name:     "spam is archived even with a high score",
			category: "spam",
			score:    9,
			wantType: models.ActionArchive,
		},
		{
			name:     "urgent flags before score is considered",
			category: "urgent",
			score:    1,
			wantType: models.ActionFlag,
		},
		{
			name:     "business flags with business reasoning, not score reasoning",
			category: "business",
			score:    9,
			wantType: models.ActionFlag,
		},
		{
			name:     "fan with score above threshold flags",
			category: "fan",
			score:    8,
			wantType: models.ActionFlag,
		},
		{
			name:     "score equal to threshold does not flag",
			category: "fan",
			score:    7,
			wantType: models.ActionRespond,
		},
		{
			name:     "fan below threshold gets a drafted reply",
			category: "fan",
			score:    3,
			wantType: models.ActionRespond,
		},
		{
			name:      "negative sentiment alone changes nothing",
			category:  "fan",
			sentiment: "negative",
			score:     1,
			wantType:  models.ActionRespond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.faqMatch, tt.category, tt.sentiment, tt.score, 7)
			assert.Equal(t, tt.wantType, d.Type)
			assert.False(t, d.None())
		})
	}
}

func TestDecideFAQCarriesAnswer(t *testing.T) {
	d := Decide(FAQMatch{Matched: true, Question: "What camera do you use?", Answer: "A Sony A7IV."}, "fan", "positive", 2, 7)

	assert.Equal(t, models.ActionRespond, d.Type)
	assert.Equal(t, "A Sony A7IV.", d.SuggestedText)
	assert.Contains(t, d.Reasoning, "What camera do you use?")
	assert.False(t, d.NeedsDraft)
}

func TestDecideFanNeedsDraft(t *testing.T) {
	d := Decide(FAQMatch{}, "fan", "positive", 2, 7)

	assert.Equal(t, models.ActionRespond, d.Type)
	assert.True(t, d.NeedsDraft)
	assert.Empty(t, d.SuggestedText)
}

func TestDecideUnknownCategoryDoesNothing(t *testing.T) {
	d := Decide(FAQMatch{}, "", "neutral", 2, 7)
	assert.True(t, d.None())
}

func TestResponderDraft(t *testing.T) {
	gw := &fakeGateway{draftResult: "Thanks so much for watching!"}
	r := NewResponder(gw, testConfig(), testLogger())

	reply := r.Draft(context.Background(), "love your videos")
	assert.Equal(t, "Thanks so much for watching!", reply)
}

func TestResponderDraftFallsBackOnError(t *testing.T) {
	gw := &fakeGateway{err: ai.ErrUpstream}
	r := NewResponder(gw, testConfig(), testLogger())

	reply := r.Draft(context.Background(), "love your videos")
	assert.Equal(t, defaultFanReply, reply)
}

func TestResponderDraftFallsBackOnEmptyOutput(t *testing.T) {
	gw := &fakeGateway{draftResult: ""}
	r := NewResponder(gw, testConfig(), testLogger())

	assert.Equal(t, defaultFanReply, r.Draft(context.Background(), "hey"))
}
