// Package core defines the LLM provider interface used by the
// correct job (internal/jobs/correct.go) to request a fix for a
// compiler error.
package core

import "context"

// Option represents a configuration option for LLM calls.
type Option func(*CallOptions)

// CallOptions holds configuration for an LLM generation call.
type CallOptions struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	StopSequences    []string
	PresencePenalty  float64
	FrequencyPenalty float64
}

// WithTemperature sets the temperature for generation.
func WithTemperature(t float64) Option {
	return func(o *CallOptions) {
		o.Temperature = t
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(max int) Option {
	return func(o *CallOptions) {
		o.MaxTokens = max
	}
}

// WithTopP sets the top-p (nucleus sampling) parameter.
func WithTopP(p float64) Option {
	return func(o *CallOptions) {
		o.TopP = p
	}
}

// Message represents a chat message with a role and content.
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LLM defines the interface for chat-completion providers. correct.go
// depends on this interface rather than on *openai.Client directly, so
// a test can substitute a fake.
type LLM interface {
	// GenerateChat produces a completion for a conversation of messages.
	GenerateChat(ctx context.Context, messages []Message, opts ...Option) (string, error)
}
