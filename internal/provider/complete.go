package provider

import (
	"context"
	"fmt"
	"strings"
)

// Completion is the collected result of one streamed request.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Complete sends req and drains the stream into a single Completion. The
// first error event aborts collection.
func Complete(ctx context.Context, p LLMProvider, req CompletionRequest) (Completion, error) {
	ch, err := p.Stream(ctx, req)
	if err != nil {
		return Completion{}, fmt.Errorf("llm complete: %w", err)
	}

	var out Completion
	var b strings.Builder
	for evt := range ch {
		switch evt.Type {
		case EventTextDelta:
			b.WriteString(evt.Text)
		case EventUsage:
			out.InputTokens += evt.InputTokens
			out.OutputTokens += evt.OutputTokens
		case EventError:
			// Drain so the producer goroutine can exit.
			go func() {
				for range ch {
				}
			}()
			return Completion{}, fmt.Errorf("llm stream error: %w", evt.Error)
		}
	}
	out.Text = b.String()
	return out, nil
}
