package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// CompletionHandler serves the raw completion endpoint.
type CompletionHandler struct {
	Gateway *gateway.Gateway
}

// Completion handles POST /completion.
func (h *CompletionHandler) Completion(w http.ResponseWriter, r *http.Request) {
	var req api.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body: "+err.Error())
		return
	}

	if req.Stream {
		h.stream(w, r, &req)
		return
	}

	resp, err := h.Gateway.Complete(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *CompletionHandler) stream(w http.ResponseWriter, r *http.Request, req *api.CompletionRequest) {
	events, err := h.Gateway.Stream(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sse := newSSEWriter(w)
	model := h.Gateway.ModelName()

	for ev := range events {
		switch {
		case ev.Err != nil:
			sse.send(api.CompletionChunk{Error: ev.Err.Error()})
		case ev.Done:
			sse.send(api.CompletionChunk{Done: true})
		default:
			chunk := api.CompletionChunk{
				Model:     model,
				CreatedAt: time.Now().Unix(),
				Content:   ev.Content,
			}
			if err := sse.send(chunk); err != nil {
				sse.send(api.CompletionChunk{Error: err.Error()})
			}
		}
	}
}
