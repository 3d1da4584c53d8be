package ai

import "errors"

// Sentinel errors returned by the gateway. Callers match these with errors.Is
// to decide whether a failure is recoverable at the call site.
var (
	// ErrUpstream covers transport, auth and malformed-response failures
	ErrUpstream = errors.New("model upstream error")
	// ErrUpstreamRateLimited is returned when the provider throttles us
	ErrUpstreamRateLimited = errors.New("model upstream rate limited")
	// ErrDimensionMismatch is returned when two vectors differ in length
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrDegenerateVector is returned when a vector has zero norm
	ErrDegenerateVector = errors.New("degenerate zero-norm vector")
)

// ResultKind distinguishes plain text completions from function calls
type ResultKind string

const (
	ResultText         ResultKind = "text"
	ResultFunctionCall ResultKind = "function_call"
)

// CompletionOptions control a single completion call
type CompletionOptions struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	FunctionSchema *FunctionSchema
}

// FunctionSchema describes a function the model may call, as a JSON schema.
// When set, the call requests structured output instead of free text.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// CompletionResult is the normalized outcome of a completion call
type CompletionResult struct {
	Kind      ResultKind
	Content   string
	Name      string
	Arguments string
}
