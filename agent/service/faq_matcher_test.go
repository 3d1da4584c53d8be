package service

import (
	"context"
	"testing"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	"inbox-agent/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T, gw *fakeGateway, faqs ...models.FAQ) *FAQMatcher {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewGormFAQRepository(db)
	for i := range faqs {
		require.NoError(t, repo.Create(&faqs[i]))
	}
	return NewFAQMatcher(gw, repo, cache.NewCache(), NewMemoryRateLimiter(100), testConfig(), testLogger())
}

func TestMatchEmptyFAQSetSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMatcher(t, gw)

	match := m.Match(context.Background(), "user-1", "do you ship overseas?")

	assert.False(t, match.Matched)
	assert.Zero(t, gw.calls, "no FAQs must mean no gateway call")
}

func TestMatchReturnsMatchedFAQ(t *testing.T) {
	gw := &fakeGateway{matchResult: `{"matched":true,"faqNumber":2}`}
	m := newTestMatcher(t, gw,
		models.FAQ{ID: "f1", UserID: "user-1", Question: "What camera do you use?", Answer: "A Sony A7IV."},
		models.FAQ{ID: "f2", UserID: "user-1", Question: "Do you ship overseas?", Answer: "Yes, worldwide."},
	)

	match := m.Match(context.Background(), "user-1", "can you ship to France?")

	require.True(t, match.Matched)
	assert.Equal(t, "Do you ship overseas?", match.Question)
	assert.Equal(t, "Yes, worldwide.", match.Answer)
}

func TestMatchRejectsOutOfRangeNumber(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{"number too large", `{"matched":true,"faqNumber":5}`},
		{"number zero", `{"matched":true,"faqNumber":0}`},
		{"matched without number", `{"matched":true}`},
		{"not matched", `{"matched":false,"faqNumber":1}`},
		{"garbage output", `the message does not match`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{matchResult: tt.result}
			m := newTestMatcher(t, gw,
				models.FAQ{ID: "f1", UserID: "user-1", Question: "Q?", Answer: "A."},
			)

			match := m.Match(context.Background(), "user-1", "hello")
			assert.False(t, match.Matched)
		})
	}
}

func TestMatchDegradesWhenQuotaSpent(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormFAQRepository(db)
	require.NoError(t, repo.Create(&models.FAQ{ID: "f1", UserID: "user-1", Question: "Q?", Answer: "A."}))

	gw := &fakeGateway{matchResult: `{"matched":true,"faqNumber":1}`}
	m := NewFAQMatcher(gw, repo, cache.NewCache(), deniedLimiter{}, testConfig(), testLogger())

	match := m.Match(context.Background(), "user-1", "hello")

	assert.False(t, match.Matched)
	assert.Zero(t, gw.calls, "exhausted quota must not reach the gateway")
}

func TestMatchCachesFAQList(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormFAQRepository(db)
	require.NoError(t, repo.Create(&models.FAQ{ID: "f1", UserID: "user-1", Question: "Q?", Answer: "A."}))

	gw := &fakeGateway{matchResult: `{"matched":true,"faqNumber":1}`}
	c := cache.NewCache()
	m := NewFAQMatcher(gw, repo, c, NewMemoryRateLimiter(100), testConfig(), testLogger())

	m.Match(context.Background(), "user-1", "first")
	require.NoError(t, repo.Delete("f1", "user-1"))

	// Second match still sees the cached list
	match := m.Match(context.Background(), "user-1", "second")
	assert.True(t, match.Matched)

	c.Delete("faqs:user-1")
	match = m.Match(context.Background(), "user-1", "third")
	assert.False(t, match.Matched)
}
