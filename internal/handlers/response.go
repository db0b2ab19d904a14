// File: internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"net/http"

	chatservice "github.com/KRISH826/gemini-backend/internal/services/chat"
)

// Envelope is the body of every non-streaming response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// StatusFor maps a chat error type onto its HTTP status.
func StatusFor(t chatservice.ErrorType) int {
	switch t {
	case chatservice.ErrTypeValidation:
		return http.StatusBadRequest
	case chatservice.ErrTypeNotFound:
		return http.StatusNotFound
	case chatservice.ErrTypeUpstream,
		chatservice.ErrTypeCache,
		chatservice.ErrTypePersistence,
		chatservice.ErrTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeChatError answers with the envelope for err. Only validation and
// not-found messages are passed through; everything else is generic.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	chatErr := chatservice.AsChatError(err)
	status := StatusFor(chatErr.Type)
	msg := chatErr.Message
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "type", string(chatErr.Type), "error", err)
		msg = "Internal Server Error"
	}
	writeError(w, msg, status)
}
