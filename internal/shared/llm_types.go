package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a generative request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Total returns TotalTokens, or the sum of prompt and completion tokens when
// the provider did not report a total.
func (u TokenUsage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// AgentMeta holds operational metadata for one assistant call
// (recipe generation, tips, substitutions, answers).
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// NewAgentMeta builds an AgentMeta measuring latency from start.
func NewAgentMeta(name string, usage TokenUsage, start time.Time) AgentMeta {
	return AgentMeta{
		AgentName: name,
		Usage:     usage,
		Latency:   time.Since(start),
	}
}
