// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/KRISH826/gemini-backend/internal/services"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 600 << 10

type ChatHandler struct {
	ChatService *services.ChatService
	logger      services.Logger
}

func NewChatHandler(cs *services.ChatService, logger services.Logger) (*ChatHandler, error) {
	if cs == nil {
		return nil, errors.New("chat service is required")
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &ChatHandler{ChatService: cs, logger: logger}, nil
}

type messageRequest struct {
	Message string `json:"message"`
}

// decodeMessage reads {message} from the body. A missing body is treated
// as an empty message so that the service reports the validation error.
func decodeMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return "", false
		case errors.Is(err, io.EOF):
			return "", true
		default:
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return "", false
		}
	}
	return req.Message, true
}

// GetAllChats lists chat summaries, most recent first.
func (h *ChatHandler) GetAllChats(w http.ResponseWriter, r *http.Request) {
	chats, fromCache, err := h.ChatService.GetAllChats(r.Context())
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	if fromCache {
		writeSuccess(w, "Chats retrieved from cache", map[string]interface{}{"chats": chats})
		return
	}
	writeSuccess(w, "Chats retrieved successfully", map[string]interface{}{
		"chats":     chats,
		"fromCache": false,
	})
}

func (h *ChatHandler) CreateNewChat(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}
	chat, err := h.ChatService.CreateNewChat(r.Context(), msg)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	writeSuccess(w, "Chat created successfully", map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) GetChatByID(w http.ResponseWriter, r *http.Request) {
	chat, fromCache, err := h.ChatService.GetChatByID(r.Context(), mux.Vars(r)["chatId"])
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	msg := "Chat retrieved successfully"
	if fromCache {
		msg = "Chat retrieved from cache"
	}
	writeSuccess(w, msg, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}
	result, err := h.ChatService.SendMessage(r.Context(), mux.Vars(r)["chatId"], msg)
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	writeSuccess(w, "Message sent successfully", map[string]interface{}{"message": result})
}

// SendMessageStream answers with an event stream once the chat is known
// to exist. Earlier failures get a normal envelope.
func (h *ChatHandler) SendMessageStream(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}
	chatID := mux.Vars(r)["chatId"]
	opener := newSSEOpener(w, r)

	err := h.ChatService.SendMessageStream(r.Context(), chatID, msg, opener)
	if err == nil {
		return
	}
	if opener.opened() {
		// already reported in-band
		h.logger.Warn("streamed turn ended with error", "chat_id", chatID, "error", err)
		return
	}
	h.writeChatError(w, r, err)
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chat, err := h.ChatService.DeleteChat(r.Context(), mux.Vars(r)["chatId"])
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	writeSuccess(w, "Chat deleted successfully", map[string]interface{}{"chat": chat})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// RegisterRoutes mounts the chat API and the health check on r.
func RegisterRoutes(r *mux.Router, h *ChatHandler) {
	r.HandleFunc("/api/v1/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/gemini").Subrouter()
	api.HandleFunc("/allchat", h.GetAllChats).Methods(http.MethodGet)
	api.HandleFunc("/createnewchat", h.CreateNewChat).Methods(http.MethodPost)
	api.HandleFunc("/getchat/{chatId}", h.GetChatByID).Methods(http.MethodGet)
	api.HandleFunc("/sendmessage/{chatId}/message", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/sendmessage/{chatId}/stream", h.SendMessageStream).Methods(http.MethodPost)
	api.HandleFunc("/deletechat/{chatId}", h.DeleteChat).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
