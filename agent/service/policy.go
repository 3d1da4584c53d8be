package service

import (
	"context"
	"fmt"

	"inbox-agent/backend/agent/models"
	"inbox-agent/backend/ai"
	inbox "inbox-agent/backend/inbox/models"
	"inbox-agent/backend/pkg/config"
	"inbox-agent/backend/pkg/logger"
)

// Directive is the output of the decision policy: an action type plus optional
// suggested text and human-readable reasoning. A zero Type means no action.
type Directive struct {
	Type          string
	SuggestedText string
	Reasoning     string
	// NeedsDraft marks a respond directive whose text is generated afterwards
	NeedsDraft bool
}

// None reports whether the policy decided to take no action
func (d Directive) None() bool {
	return d.Type == ""
}

// Decide maps a triaged message to a directive. Rules are evaluated in strict
// precedence order and the first match wins:
//
//  1. FAQ matched            -> respond with the FAQ answer
//  2. spam                   -> archive
//  3. urgent                 -> flag
//  4. business               -> flag
//  5. score > threshold      -> flag
//  6. fan                    -> respond with a drafted reply
//  7. otherwise              -> no action
//
// The score rule is strict: a score equal to the threshold does not flag.
func Decide(faqMatch FAQMatch, category, sentiment string, score, threshold int) Directive {
	switch {
	case faqMatch.Matched:
		return Directive{
			Type:          models.ActionRespond,
			SuggestedText: faqMatch.Answer,
			Reasoning:     fmt.Sprintf("This message matches your FAQ: %q", faqMatch.Question),
		}
	case category == inbox.CategorySpam:
		return Directive{
			Type:      models.ActionArchive,
			Reasoning: "This message appears to be spam.",
		}
	case category == inbox.CategoryUrgent:
		return Directive{
			Type:      models.ActionFlag,
			Reasoning: "This message is urgent and requires immediate attention.",
		}
	case category == inbox.CategoryBusiness:
		return Directive{
			Type:      models.ActionFlag,
			Reasoning: "Business opportunity detected in this message.",
		}
	case score > threshold:
		return Directive{
			Type:      models.ActionFlag,
			Reasoning: fmt.Sprintf("High collaboration potential (score %d/10).", score),
		}
	case category == inbox.CategoryFan:
		return Directive{
			Type:       models.ActionRespond,
			Reasoning:  "Friendly fan message; a short reply keeps engagement up.",
			NeedsDraft: true,
		}
	default:
		return Directive{}
	}
}

// defaultFanReply is used when drafting a reply fails for any reason
const defaultFanReply = "Thank you so much for your message! I really appreciate your support."

// Responder drafts short replies for fan messages at a higher temperature
type Responder struct {
	gateway ai.Gateway
	cfg     *config.Config
	log     *logger.Logger
}

func NewResponder(gateway ai.Gateway, cfg *config.Config, log *logger.Logger) *Responder {
	return &Responder{gateway: gateway, cfg: cfg, log: log}
}

// Draft returns a 1-2 sentence friendly reply, falling back to a fixed default
// on any gateway failure or empty output.
func (r *Responder) Draft(ctx context.Context, messageText string) string {
	prompt := fmt.Sprintf(`A fan sent a content creator this message:

%q

Draft a short, friendly reply of one or two sentences. Return only the reply text.`, messageText)

	result, err := r.gateway.Complete(ctx, prompt, ai.CompletionOptions{
		Model:       r.cfg.Agent.ClassifyModel,
		Temperature: r.cfg.Agent.DraftTemp,
		MaxTokens:   r.cfg.Agent.MaxDraftTokens,
	})
	if err != nil {
		r.log.LogError(err, "drafting fan reply failed, using default")
		return defaultFanReply
	}
	if result.Kind != ai.ResultText || result.Content == "" {
		return defaultFanReply
	}
	return result.Content
}
