package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Agent metrics, exposed on /metrics via the prometheus handler
var (
	AgentRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_runs_total",
		Help: "Number of inbox triage passes started",
	})
	AgentMessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_messages_processed_total",
		Help: "Messages examined by the triage agent",
	})
	AgentSuggestionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_suggestions_created_total",
		Help: "Suggested actions staged for review",
	})
	AgentRunErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_run_errors_total",
		Help: "Per-message errors tolerated during triage passes",
	})
	AIChatQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aichat_queries_total",
		Help: "Conversational queries handled, by intent",
	}, []string{"intent"})
)
