// Package anthropic streams completions from the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julianshen/annotator/internal/provider"
)

func init() {
	provider.RegisterProvider("anthropic", func(baseURL, apiKey string, _ map[string]string) provider.LLMProvider {
		return New(baseURL, apiKey)
	})
}

// Provider implements the LLMProvider interface for the Anthropic API.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a new Anthropic provider.
func New(baseURL, apiKey string) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// apiRequest is the request body sent to the Anthropic API.
type apiRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Stream      bool             `json:"stream"`
	System      []apiSystemBlock `json:"system,omitempty"`
	Messages    []apiMessage     `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// apiSystemBlock is a system prompt block. The documentation instructions
// are identical for every file of a run, so the block is marked cacheable.
type apiSystemBlock struct {
	Type         string           `json:"type"`
	Text         string           `json:"text"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

type apiCacheControl struct {
	Type string `json:"type"` // "ephemeral"
}

type apiMessage struct {
	Role    string                  `json:"role"`
	Content []provider.ContentBlock `json:"content"`
}

// Stream sends a completion request to the Anthropic API and returns a channel
// of StreamEvents parsed from the SSE response.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	body, err := p.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, apiErrorMessage(respBody))
	}

	ch := make(chan provider.StreamEvent)
	go p.processStream(ctx, resp.Body, ch)

	return ch, nil
}

func (p *Provider) buildRequestBody(req provider.CompletionRequest) ([]byte, error) {
	apiReq := apiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}

	if req.System != "" {
		apiReq.System = []apiSystemBlock{{
			Type:         "text",
			Text:         req.System,
			CacheControl: &apiCacheControl{Type: "ephemeral"},
		}}
	}

	if req.Temperature != nil {
		temp := *req.Temperature
		apiReq.Temperature = &temp
	}

	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return json.Marshal(apiReq)
}

// apiErrorMessage extracts error.message from an API error body, falling
// back to the raw body.
func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Type + ": " + parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// processStream reads SSE events from the response body and sends StreamEvents
// to the channel as they arrive. It closes both the body and the channel when done.
func (p *Provider) processStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamEvent) {
	defer close(ch)
	defer body.Close()

	scanner := newSSEScanner(body)
	for scanner.Next() {
		if ctx.Err() != nil {
			select {
			case ch <- provider.StreamEvent{Type: provider.EventError, Error: ctx.Err()}:
			default:
			}
			return
		}

		streamEvt := p.convertSSEEvent(scanner.Event())
		if streamEvt == nil {
			continue
		}

		select {
		case ch <- *streamEvt:
		case <-ctx.Done():
			select {
			case ch <- provider.StreamEvent{Type: provider.EventError, Error: ctx.Err()}:
			default:
			}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case ch <- provider.StreamEvent{Type: provider.EventError, Error: err}:
		case <-ctx.Done():
		}
	}
}

// convertSSEEvent converts a raw SSE event into a StreamEvent.
func (p *Provider) convertSSEEvent(evt sseEvent) *provider.StreamEvent {
	switch evt.Event {
	case "message_start":
		return p.handleMessageStart(evt.Data)
	case "content_block_delta":
		return p.handleContentBlockDelta(evt.Data)
	case "message_delta":
		return p.handleMessageDelta(evt.Data)
	case "message_stop":
		return &provider.StreamEvent{Type: provider.EventStop}
	case "error":
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("stream error: %s", apiErrorMessage([]byte(evt.Data)))}
	default:
		return nil
	}
}

func (p *Provider) handleMessageStart(data string) *provider.StreamEvent {
	var parsed struct {
		Message struct {
			Usage struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		} `json:"message"`
	}

	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing message_start: %w", err)}
	}

	return &provider.StreamEvent{
		Type:        provider.EventUsage,
		InputTokens: parsed.Message.Usage.InputTokens,
	}
}

func (p *Provider) handleContentBlockDelta(data string) *provider.StreamEvent {
	var parsed struct {
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	}

	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing content_block_delta: %w", err)}
	}

	if parsed.Delta.Type != "text_delta" {
		return nil
	}
	return &provider.StreamEvent{
		Type: provider.EventTextDelta,
		Text: parsed.Delta.Text,
	}
}

// handleMessageDelta reports the final output token count. The usage in
// message_delta is cumulative for the message.
func (p *Provider) handleMessageDelta(data string) *provider.StreamEvent {
	var parsed struct {
		Usage struct {
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing message_delta: %w", err)}
	}

	return &provider.StreamEvent{
		Type:         provider.EventUsage,
		OutputTokens: parsed.Usage.OutputTokens,
	}
}
