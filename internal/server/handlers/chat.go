package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// ChatHandler serves the OpenAI-style chat completions endpoint.
type ChatHandler struct {
	Gateway *gateway.Gateway
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *ChatHandler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req api.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body: "+err.Error())
		return
	}

	if req.Stream {
		events, err := h.Gateway.ChatCompletionStream(r.Context(), &req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		streamChatEvents(w, h.Gateway.ModelName(), events)
		return
	}

	resp, err := h.Gateway.ChatCompletion(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// streamChatEvents frames gateway events as OpenAI chat completion chunks,
// terminated by the literal [DONE] frame. The connection stays open until
// the terminal event even on failure; errors are delivered in-band.
func streamChatEvents(w http.ResponseWriter, model string, events <-chan gateway.StreamEvent) {
	sse := newSSEWriter(w)

	id := fmt.Sprintf("chatcmpl-%d", time.Now().Unix())
	created := time.Now().Unix()

	chunk := func(delta api.MessageDelta, finish *string) api.ChatCompletionChunk {
		return api.ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []api.ChunkChoice{{
				Index:        0,
				Delta:        delta,
				FinishReason: finish,
			}},
		}
	}

	sse.send(chunk(api.MessageDelta{Role: api.RoleAssistant}, nil))

	for ev := range events {
		switch {
		case ev.Err != nil:
			sse.send(map[string]string{"error": ev.Err.Error()})
		case ev.Done:
			stop := "stop"
			sse.send(chunk(api.MessageDelta{}, &stop))
		default:
			if err := sse.send(chunk(api.MessageDelta{Content: ev.Content}, nil)); err != nil {
				sse.send(map[string]string{"error": err.Error()})
			}
		}
	}

	sse.raw("[DONE]")
}
