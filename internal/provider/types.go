// Package provider defines the streaming LLM interface used to draft
// documentation, with a registry of concrete backends.
package provider

import "context"

// LLMProvider defines the interface for interacting with an LLM provider.
type LLMProvider interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

// CompletionRequest represents a request to an LLM for completion.
type CompletionRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a block of content within a message. Only text
// blocks are produced by this tool.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Stream event types.
const (
	EventTextDelta = "text_delta"
	EventUsage     = "usage"
	EventStop      = "stop"
	EventError     = "error"
)

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Type         string
	Text         string
	Error        error
	InputTokens  int
	OutputTokens int
}

// NewUserMessage creates a new user message with a single text content block.
func NewUserMessage(text string) Message {
	return Message{
		Role: "user",
		Content: []ContentBlock{
			{
				Type: "text",
				Text: text,
			},
		},
	}
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var s string
	for _, b := range m.Content {
		if b.Type == "text" {
			s += b.Text
		}
	}
	return s
}
