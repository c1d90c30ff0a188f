package handlers

import (
	"net/http"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// MessageHandler contains HTTP handlers for message operations.
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessage handles POST /api/v1/conversations/{conversationID}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	convID := chi.URLParam(r, "conversationID")

	var req models.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), c, convID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ConversationMessages handles GET /api/v1/conversations/{conversationID}/messages
// Query params:
//   - timestamp_after, timestamp_before: RFC 3339 bounds on sent_at
//   - page, page_size
func (h *MessageHandler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "conversationID"))
}

// GetMessages handles GET /api/v1/messages
// Lists messages the caller sent or received, or those of one conversation
// when ?conversation= is given.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("conversation"))
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request, convID string) {
	c, ok := caller(w, r)
	if !ok {
		return
	}

	f := models.MessageFilter{ConversationID: convID}
	var err error
	if f.After, err = timeParam(r, "timestamp_after"); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid 'timestamp_after' timestamp format")
		return
	}
	if f.Before, err = timeParam(r, "timestamp_before"); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid 'timestamp_before' timestamp format")
		return
	}

	page, pageSize := pagination(r)
	result, err := h.messageService.List(r.Context(), c, f, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Unread handles GET /api/v1/messages/unread
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.messageService.Unread(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetMessage handles GET /api/v1/messages/{messageID}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	msg, err := h.messageService.Get(r.Context(), c, chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// EditMessage handles PATCH /api/v1/messages/{messageID}
func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.EditMessageRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.messageService.Edit(r.Context(), c, chi.URLParam(r, "messageID"), req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessage handles DELETE /api/v1/messages/{messageID}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.messageService.Delete(r.Context(), c, chi.URLParam(r, "messageID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/v1/messages/{messageID}/history
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.messageService.History(r.Context(), c, chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Thread handles GET /api/v1/messages/{messageID}/thread
// Returns every direct and indirect reply to the message, oldest first.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.messageService.Thread(r.Context(), c, chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
