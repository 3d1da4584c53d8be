package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"inbox-agent/backend/pkg/config"
)

// Gateway is the call surface over a text-completion and an embedding
// capability. All agent components depend on this interface so tests can
// substitute a double; no process-wide client state is kept.
type Gateway interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (*CompletionResult, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIGateway implements Gateway against an OpenAI-compatible HTTP API
type OpenAIGateway struct {
	baseURL    string
	apiKey     string
	embedModel string
	maxRetries int
	httpClient *http.Client
}

// NewOpenAIGateway creates a gateway from application configuration
func NewOpenAIGateway(cfg *config.Config) (*OpenAIGateway, error) {
	if cfg.Gateway.APIKey == "" {
		return nil, errors.New("model API key is required")
	}
	return &OpenAIGateway{
		baseURL:    cfg.Gateway.BaseURL,
		apiKey:     cfg.Gateway.APIKey,
		embedModel: cfg.Gateway.EmbedModel,
		maxRetries: cfg.Gateway.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Gateway.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []chatMessage    `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Tools       []toolDefinition `json:"tools,omitempty"`
	ToolChoice  any              `json:"tool_choice,omitempty"`
}

type toolDefinition struct {
	Type     string          `json:"type"`
	Function *FunctionSchema `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a single-prompt completion request. When opts.FunctionSchema
// is set the schema is passed as a forced tool call and the result carries the
// call name and raw JSON arguments instead of text.
func (g *OpenAIGateway) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*CompletionResult, error) {
	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.FunctionSchema != nil {
		reqBody.Tools = []toolDefinition{{Type: "function", Function: opts.FunctionSchema}}
		reqBody.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": opts.FunctionSchema.Name},
		}
	}

	body, err := g.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding completion response: %v", ErrUpstream, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion returned", ErrUpstream)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		return &CompletionResult{
			Kind:      ResultFunctionCall,
			Name:      msg.ToolCalls[0].Function.Name,
			Arguments: msg.ToolCalls[0].Function.Arguments,
		}, nil
	}
	return &CompletionResult{Kind: ResultText, Content: msg.Content}, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding vector for the given text
func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := g.post(ctx, "/embeddings", embedRequest{Model: g.embedModel, Input: text})
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding embedding response: %v", ErrUpstream, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrUpstream)
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request and normalizes transport and status failures into
// the gateway error taxonomy. 429 and 5xx responses are retried with backoff.
func (g *OpenAIGateway) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrUpstream, err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("%w: creating request: %v", ErrUpstream, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUpstream, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading response: %v", ErrUpstream, err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status 429", ErrUpstreamRateLimited)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
		default:
			// 4xx other than 429 will not improve on retry
			return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
		}
	}
	return nil, lastErr
}
