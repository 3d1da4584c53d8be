package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"inbox-agent/backend/ai"
	"inbox-agent/backend/inbox/models"
	"inbox-agent/backend/inbox/repository"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/logger"
)

// defaultAnnotation is returned whenever the model output cannot be parsed.
// Parse failures never propagate to the caller.
var defaultAnnotation = models.Annotation{
	Category:           models.CategoryFan,
	Sentiment:          models.SentimentNeutral,
	CollaborationScore: 1,
}

var classifySchema = &ai.FunctionSchema{
	Name:        "classify_message",
	Description: "Classify a direct message from a creator's inbox",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type": "string",
				"enum": []string{models.CategoryFan, models.CategoryBusiness, models.CategorySpam, models.CategoryUrgent},
			},
			"sentiment": map[string]any{
				"type": "string",
				"enum": []string{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative},
			},
			"collaborationScore": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 10,
			},
		},
		"required": []string{"category", "sentiment", "collaborationScore"},
	},
}

// Categorizer classifies messages into {category, sentiment, collaboration
// score} and writes the result back as a permanent annotation.
type Categorizer struct {
	gateway  ai.Gateway
	messages repository.MessageRepository
	cfg      *config.Config
	log      *logger.Logger
}

func NewCategorizer(gateway ai.Gateway, messages repository.MessageRepository, cfg *config.Config, log *logger.Logger) *Categorizer {
	return &Categorizer{gateway: gateway, messages: messages, cfg: cfg, log: log}
}

// Categorize classifies the message text and annotates the stored message.
// Malformed model output falls back to {fan, neutral, 1}; only gateway
// transport failures are returned.
func (c *Categorizer) Categorize(ctx context.Context, message *models.Message) (models.Annotation, error) {
	prompt := fmt.Sprintf(`Classify the following direct message sent to a content creator.

Message: %q

Return a JSON object with exactly these fields:
- "category": one of "fan", "business", "spam", "urgent"
- "sentiment": one of "positive", "neutral", "negative"
- "collaborationScore": integer 1-10 estimating business/partnership potential`, message.Text)

	result, err := c.gateway.Complete(ctx, prompt, ai.CompletionOptions{
		Model:          c.cfg.Agent.ClassifyModel,
		Temperature:    c.cfg.Agent.ClassifyTemp,
		FunctionSchema: classifySchema,
	})
	if err != nil {
		return models.Annotation{}, err
	}

	annotation := parseAnnotation(result, c.log)

	if err := c.messages.Annotate(message.ID, annotation); err != nil {
		return models.Annotation{}, fmt.Errorf("annotating message %s: %w", message.ID, err)
	}
	message.Category = &annotation.Category
	message.Sentiment = &annotation.Sentiment
	message.CollaborationScore = &annotation.CollaborationScore
	return annotation, nil
}

// parseAnnotation pulls the classification out of either a structured function
// call or free text. Anything malformed yields the fixed default.
func parseAnnotation(result *ai.CompletionResult, log *logger.Logger) models.Annotation {
	raw := result.Content
	if result.Kind == ai.ResultFunctionCall {
		raw = result.Arguments
	}

	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		log.Warn("classification output carried no JSON object, using default")
		return defaultAnnotation
	}

	var parsed struct {
		Category           string `json:"category"`
		Sentiment          string `json:"sentiment"`
		CollaborationScore int    `json:"collaborationScore"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		log.Warn("classification output was not valid JSON, using default", "error", err.Error())
		return defaultAnnotation
	}

	if !validCategory(parsed.Category) || !validSentiment(parsed.Sentiment) ||
		parsed.CollaborationScore < 1 || parsed.CollaborationScore > 10 {
		log.Warn("classification output failed validation, using default",
			"category", parsed.Category,
			"sentiment", parsed.Sentiment,
			"score", parsed.CollaborationScore,
		)
		return defaultAnnotation
	}

	return models.Annotation{
		Category:           parsed.Category,
		Sentiment:          parsed.Sentiment,
		CollaborationScore: parsed.CollaborationScore,
	}
}

// extractJSONObject returns the first balanced {...} substring, or empty.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

func validCategory(category string) bool {
	switch category {
	case models.CategoryFan, models.CategoryBusiness, models.CategorySpam, models.CategoryUrgent:
		return true
	}
	return false
}

func validSentiment(sentiment string) bool {
	switch sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
		return true
	}
	return false
}
