package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/agent/repository"
	"inbox-agent/backend/ai"
	"inbox-agent/backend/pkg/cache"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/logger"
)

var matchSchema = &ai.FunctionSchema{
	Name:        "match_faq",
	Description: "Report whether the message matches one of the numbered FAQs",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"matched":   map[string]any{"type": "boolean"},
			"faqNumber": map[string]any{"type": []string{"integer", "null"}},
		},
		"required": []string{"matched"},
	},
}

// FAQMatch is the outcome of matching a message against a user's FAQ set
type FAQMatch struct {
	Matched  bool
	Question string
	Answer   string
}

// FAQMatcher adjudicates whether an incoming message is answered by one of the
// user's predefined question/answer pairs. It never returns an error: any
// gateway or parse failure degrades to "no match".
type FAQMatcher struct {
	gateway ai.Gateway
	faqs    repository.FAQRepository
	cache   *cache.Cache
	limiter RateLimiter
	cfg     *config.Config
	log     *logger.Logger
}

func NewFAQMatcher(gateway ai.Gateway, faqs repository.FAQRepository, faqCache *cache.Cache, limiter RateLimiter, cfg *config.Config, log *logger.Logger) *FAQMatcher {
	return &FAQMatcher{gateway: gateway, faqs: faqs, cache: faqCache, limiter: limiter, cfg: cfg, log: log}
}

// Match returns the matched FAQ, or a zero FAQMatch when nothing matches.
// A user with zero FAQs never costs a gateway call or quota.
func (m *FAQMatcher) Match(ctx context.Context, userID, messageText string) FAQMatch {
	faqs, err := m.listFAQs(userID)
	if err != nil {
		m.log.LogError(err, "listing FAQs for matching", "user_id", userID)
		return FAQMatch{}
	}
	if len(faqs) == 0 {
		return FAQMatch{}
	}

	if err := m.limiter.CheckAndIncrement(ctx, userID); err != nil {
		m.log.LogError(err, "FAQ match skipped by rate limit", "user_id", userID)
		return FAQMatch{}
	}

	var list strings.Builder
	for i, faq := range faqs {
		fmt.Fprintf(&list, "%d. %s\n", i+1, faq.Question)
	}

	prompt := fmt.Sprintf(`A content creator has these frequently asked questions:

%s
Does the following message ask one of them?

Message: %q

Return a JSON object {"matched": bool, "faqNumber": int|null} where faqNumber is the 1-based number of the matching FAQ.`, list.String(), messageText)

	result, err := m.gateway.Complete(ctx, prompt, ai.CompletionOptions{
		Model:          m.cfg.Agent.ClassifyModel,
		Temperature:    m.cfg.Agent.MatchTemp,
		FunctionSchema: matchSchema,
	})
	if err != nil {
		m.log.LogError(err, "FAQ match gateway call failed", "user_id", userID)
		return FAQMatch{}
	}

	raw := result.Content
	if result.Kind == ai.ResultFunctionCall {
		raw = result.Arguments
	}
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return FAQMatch{}
	}

	var parsed struct {
		Matched   bool `json:"matched"`
		FAQNumber *int `json:"faqNumber"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		m.log.Warn("FAQ match output was not valid JSON", "error", err.Error())
		return FAQMatch{}
	}

	// faqNumber must be a valid 1-based index into the list we sent
	if !parsed.Matched || parsed.FAQNumber == nil || *parsed.FAQNumber < 1 || *parsed.FAQNumber > len(faqs) {
		return FAQMatch{}
	}

	matched := faqs[*parsed.FAQNumber-1]
	return FAQMatch{Matched: true, Question: matched.Question, Answer: matched.Answer}
}

func (m *FAQMatcher) listFAQs(userID string) ([]models.FAQ, error) {
	cacheKey := "faqs:" + userID
	if m.cache != nil {
		if cached, found := m.cache.Get(cacheKey); found {
			return cached.([]models.FAQ), nil
		}
	}

	faqs, err := m.faqs.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.SetWithExpiration(cacheKey, faqs, 5*time.Minute)
	}
	return faqs, nil
}
