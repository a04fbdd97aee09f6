package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bitnetd/bitnetd/internal/gateway"
	"github.com/bitnetd/bitnetd/internal/runner"
	"github.com/bitnetd/bitnetd/pkg/api"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: api.ErrorDetail{
			Message: message,
			Type:    "error",
			Code:    code,
		},
	})
}

// writeServiceError maps a gateway or runner failure to an HTTP status and
// error code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrModelNotLoaded):
		writeError(w, http.StatusBadRequest, "model_not_loaded", err.Error())
	case errors.Is(err, gateway.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
	case errors.Is(err, runner.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "process_timeout", err.Error())
	case errors.Is(err, runner.ErrExecutableNotFound):
		writeError(w, http.StatusInternalServerError, "executable_not_found", err.Error())
	case errors.Is(err, runner.ErrSpawn):
		writeError(w, http.StatusInternalServerError, "process_spawn_failure", err.Error())
	case errors.Is(err, runner.ErrAbnormalExit):
		writeError(w, http.StatusInternalServerError, "process_abnormal_exit", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "completion_error", err.Error())
	}
}
