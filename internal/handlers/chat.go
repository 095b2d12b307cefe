package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// ChatHandler serves chat history and the REST send path.
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRouter registers chat routes. Every route requires authentication.
func ChatRouter(r chi.Router, handler *ChatHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/history/{userId}", handler.History)
	r.Get("/conversations", handler.Conversations)
	r.Post("/send", handler.Send)
	r.Get("/available-users", handler.AvailableUsers)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	otherID, err := parseID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	history, err := h.chatService.History(r.Context(), currentUser(r).ID, otherID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", history)
}

func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatService.Conversations(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", conversations)
}

// Send persists a message. It does not push to connected sockets.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	msg, err := h.chatService.SendMessage(r.Context(), currentUser(r).ID, int(req.ReceiverID), req.Message)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, "Message sent successfully.", msg)
}

func (h *ChatHandler) AvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.chatService.AvailableContacts(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "", users)
}

type SendMessageRequest struct {
	ReceiverID types.LooseID `json:"receiverId"`
	Message    string        `json:"message"`
}
