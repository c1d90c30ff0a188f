package handlers

import (
	"net/http"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// ConversationHandler contains HTTP handlers for conversations.
type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// List handles GET /api/v1/conversations
// Query params:
//   - search: substring of the title
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.conversations.List(r.Context(), c, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListForUser handles GET /api/v1/users/{userID}/conversations
func (h *ConversationHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.conversations.ListFor(r.Context(), c, chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.CreateConversationRequest
	if !decode(w, r, &req) {
		return
	}
	conv, err := h.conversations.Create(r.Context(), c, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// Get handles GET /api/v1/conversations/{conversationID}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	conv, err := h.conversations.Get(r.Context(), c, chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Update handles PATCH /api/v1/conversations/{conversationID}
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.UpdateConversationRequest
	if !decode(w, r, &req) {
		return
	}
	conv, err := h.conversations.Rename(r.Context(), c, chi.URLParam(r, "conversationID"), req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/v1/conversations/{conversationID}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.conversations.Delete(r.Context(), c, chi.URLParam(r, "conversationID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
