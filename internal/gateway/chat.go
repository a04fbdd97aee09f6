package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitnetd/bitnetd/internal/prompt"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// ChatCompletion serves POST /v1/chat/completions. The conversation is
// keyed by the request's model field; the client's message list replaces the
// stored history for the turn.
func (g *Gateway) ChatCompletion(ctx context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
	history := append([]api.Message(nil), req.Messages...)
	return g.runChatTurn(ctx, req.Model, "", history, req)
}

// ChatCompletionStream is the streaming variant of ChatCompletion.
func (g *Gateway) ChatCompletionStream(ctx context.Context, req *api.ChatCompletionRequest) (<-chan StreamEvent, error) {
	history := append([]api.Message(nil), req.Messages...)
	return g.runChatTurnStream(ctx, req.Model, history, req)
}

// ConversationChat serves POST /v1/conversations/{id}/chat. The stored
// history is merged with the incoming messages: a client list shorter than
// the stored one resets the conversation (the client started over);
// otherwise the latest user message is appended to the stored history.
func (g *Gateway) ConversationChat(ctx context.Context, id string, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
	history := g.mergeConversation(id, req.Messages)
	return g.runChatTurn(ctx, id, id, history, req)
}

// ConversationChatStream is the streaming variant of ConversationChat.
func (g *Gateway) ConversationChatStream(ctx context.Context, id string, req *api.ChatCompletionRequest) (<-chan StreamEvent, error) {
	history := g.mergeConversation(id, req.Messages)
	return g.runChatTurnStream(ctx, id, history, req)
}

// mergeConversation resolves the effective history for an explicit
// conversation, creating it implicitly on first use.
func (g *Gateway) mergeConversation(id string, incoming []api.Message) []api.Message {
	stored, ok := g.store.Get(id)
	if !ok {
		stored = nil
	}

	if len(incoming) < len(stored) {
		return append([]api.Message(nil), incoming...)
	}

	history := append([]api.Message(nil), stored...)
	for i := len(incoming) - 1; i >= 0; i-- {
		if incoming[i].Role == api.RoleUser {
			history = append(history, incoming[i])
			break
		}
	}
	return history
}

// completionRequest maps a chat request onto the completion parameters.
func (g *Gateway) completionRequest(history []api.Message, req *api.ChatCompletionRequest) *api.CompletionRequest {
	return &api.CompletionRequest{
		Prompt:      prompt.Format(history),
		Temperature: req.Temperature,
		TopP:        req.TopP,
		NPredict:    req.MaxTokens,
		Stream:      req.Stream,
	}
}

// runChatTurn performs one blocking chat turn: run the completion, persist
// the updated history with the assistant's reply, and wrap the result.
func (g *Gateway) runChatTurn(ctx context.Context, convID, envelopeConvID string, history []api.Message, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
	result, err := g.Complete(ctx, g.completionRequest(history, req))
	if err != nil {
		return nil, err
	}

	history = append(history, api.Message{Role: api.RoleAssistant, Content: result.Content})
	g.store.Put(convID, history)

	now := time.Now().Unix()
	return &api.ChatCompletionResponse{
		ID:             fmt.Sprintf("chatcmpl-%d", now),
		Object:         "chat.completion",
		Created:        now,
		Model:          g.modelName,
		ConversationID: envelopeConvID,
		Choices: []api.Choice{{
			Index: 0,
			Message: api.Message{
				Role:    api.RoleAssistant,
				Content: result.Content,
			},
			FinishReason: "stop",
		}},
	}, nil
}

// runChatTurnStream performs one streaming chat turn. Events are forwarded
// as-is; on normal completion the accumulated assistant text is appended to
// the stored history. Partial output already delivered is never retracted.
func (g *Gateway) runChatTurnStream(ctx context.Context, convID string, history []api.Message, req *api.ChatCompletionRequest) (<-chan StreamEvent, error) {
	events, err := g.Stream(ctx, g.completionRequest(history, req))
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)

		var chunks []string
		for ev := range events {
			if ev.Content != "" {
				chunks = append(chunks, ev.Content)
			}
			if ev.Done {
				final := append(history, api.Message{
					Role:    api.RoleAssistant,
					Content: strings.Join(chunks, "\n"),
				})
				g.store.Put(convID, final)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
