package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"lessonpath-backend-go/internal/logging"
	"lessonpath-backend-go/internal/services"
)

const maxJSONBody = 2 << 20

// ErrorResponse carries the message twice; older clients read "msg".
type ErrorResponse struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message, Msg: message})
}

func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, MessageResponse{Message: message, Msg: message})
}

// writeServiceError answers with the status a service chose, or logs the
// error and answers with a generic internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr services.ServiceError
	if !errors.As(err, &svcErr) {
		logging.FromContext(r.Context()).Error("request failed", "err", err)
		errors.As(services.ErrInternal("Internal server error"), &svcErr)
	}
	WriteError(w, svcErr.Status, svcErr.Message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
}
