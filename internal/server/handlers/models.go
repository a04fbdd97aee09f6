package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// ModelsHandler serves GET /v1/models so OpenAI-compatible clients can
// discover the single loaded model.
type ModelsHandler struct {
	Gateway *gateway.Gateway
}

// List handles GET /v1/models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := api.ModelListResponse{
		Object: "list",
		Data: []api.ModelInfo{{
			ID:      h.Gateway.ModelName(),
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "local",
		}},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
