package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// ConversationHandler serves the explicit conversation endpoints.
type ConversationHandler struct {
	Gateway *gateway.Gateway
}

// Create handles POST /v1/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.Gateway.CreateConversation()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"conversation_id": id})
}

// Get handles GET /v1/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	msgs, err := h.Gateway.Conversation(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if msgs == nil {
		msgs = []api.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.ConversationResponse{
		ConversationID: id,
		Messages:       msgs,
	})
}

// Chat handles POST /v1/conversations/{id}/chat.
func (h *ConversationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req api.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body: "+err.Error())
		return
	}

	if req.Stream {
		events, err := h.Gateway.ConversationChatStream(r.Context(), id, &req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		streamChatEvents(w, h.Gateway.ModelName(), events)
		return
	}

	resp, err := h.Gateway.ConversationChat(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
