package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(url string) *OpenAIGateway {
	return &OpenAIGateway{
		baseURL:    url,
		apiKey:     "test-key",
		embedModel: "test-embed",
		maxRetries: 0,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestCompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	result, err := g.Complete(context.Background(), "say hello", CompletionOptions{Model: "m", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, ResultText, result.Kind)
	assert.Equal(t, "hello there", result.Content)
}

func TestCompleteFunctionCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"tool_calls":[{"function":{"name":"classify","arguments":"{\"category\":\"spam\"}"}}]}}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	schema := &FunctionSchema{Name: "classify", Parameters: map[string]any{"type": "object"}}
	result, err := g.Complete(context.Background(), "classify this", CompletionOptions{Model: "m", FunctionSchema: schema})
	require.NoError(t, err)
	assert.Equal(t, ResultFunctionCall, result.Kind)
	assert.Equal(t, "classify", result.Name)
	assert.JSONEq(t, `{"category":"spam"}`, result.Arguments)
}

func TestCompleteUpstreamRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	_, err := g.Complete(context.Background(), "p", CompletionOptions{Model: "m"})
	assert.ErrorIs(t, err, ErrUpstreamRateLimited)
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	_, err := g.Complete(context.Background(), "p", CompletionOptions{Model: "m"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	g.maxRetries = 2
	result, err := g.Complete(context.Background(), "p", CompletionOptions{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Content)
	assert.Equal(t, 2, calls)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	vec, err := g.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestCosineSimilarity(t *testing.T) {
	v := []float64{0.5, 1.25, -2}
	sim, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	orthA := []float64{1, 0}
	orthB := []float64{0, 1}
	sim, err = CosineSimilarity(orthA, orthB)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCosineSimilarityDegenerateVector(t *testing.T) {
	_, err := CosineSimilarity([]float64{0, 0}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDegenerateVector)
}
