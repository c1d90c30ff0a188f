package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

// MessageService handles posting, reading and editing messages.
// Edit history and notifications are produced by the store hooks.
type MessageService struct {
	store *store.Store
}

func NewMessageService(s *store.Store) *MessageService {
	return &MessageService{store: s}
}

// Send posts a message into a conversation. The recipient defaults to the
// only other participant of a two-party conversation.
func (s *MessageService) Send(ctx context.Context, caller auth.Authenticated, conversationID string, req models.SendMessageRequest) (*models.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, invalid("message_body is required")
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !hasParticipant(conv, caller.UserID) {
		return nil, ErrForbidden
	}

	recipient, err := pickRecipient(conv, caller.UserID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.store.GetMessage(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid("parent_message does not exist")
			}
			return nil, err
		}
		if parent.ConversationID != conversationID {
			return nil, invalid("parent_message belongs to another conversation")
		}
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       caller.UserID,
		RecipientID:    recipient,
		Body:           body,
		ParentID:       req.ParentID,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	log.Printf("[Message] Stored message %s in conversation %s from %s", msg.ID, conversationID, caller.Username)
	return msg, nil
}

func pickRecipient(conv *models.Conversation, senderID string, requested *string) (string, error) {
	if requested != nil {
		id := strings.TrimSpace(*requested)
		if id == senderID {
			return "", invalid("recipient must differ from the sender")
		}
		if !hasParticipant(conv, id) {
			return "", invalid("recipient is not a participant of this conversation")
		}
		return id, nil
	}

	var others []string
	for _, p := range conv.Participants {
		if p.ID != senderID {
			others = append(others, p.ID)
		}
	}
	if len(others) != 1 {
		return "", invalid("recipient is required in group conversations")
	}
	return others[0], nil
}

// List returns one page of a conversation's messages, newest first.
func (s *MessageService) List(ctx context.Context, caller auth.Authenticated, f models.MessageFilter, page, pageSize int) (models.Page[models.Message], error) {
	if f.ConversationID != "" {
		if err := s.requireParticipant(ctx, caller, f.ConversationID); err != nil {
			return models.Page[models.Message]{}, err
		}
	} else {
		f.ParticipantID = caller.UserID
	}

	list, total, err := s.store.ListMessages(ctx, f, page, pageSize)
	if err != nil {
		return models.Page[models.Message]{}, err
	}
	return models.Page[models.Message]{Count: total, Page: page, PageSize: pageSize, Results: list}, nil
}

// Get returns a message. When the recipient reads an unread message it is
// marked read.
func (s *MessageService) Get(ctx context.Context, caller auth.Authenticated, id string) (*models.Message, error) {
	msg, err := s.readable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != caller.UserID || msg.Read {
		return msg, nil
	}

	return s.store.UpdateMessage(ctx, id, func(m *models.Message) error {
		m.Read = true
		return nil
	})
}

// Edit replaces the body of a message. Only its sender may edit it.
func (s *MessageService) Edit(ctx context.Context, caller auth.Authenticated, id, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("message_body is required")
	}

	msg, err := s.store.UpdateMessage(ctx, id, func(m *models.Message) error {
		if m.SenderID != caller.UserID {
			return ErrForbidden
		}
		m.Body = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Message] %s edited message %s", caller.Username, id)
	return msg, nil
}

// Delete removes a message. Senders and admins may delete.
func (s *MessageService) Delete(ctx context.Context, caller auth.Authenticated, id string) error {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != caller.UserID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return s.store.DeleteMessage(ctx, id)
}

// Unread returns the caller's unread messages, newest first.
func (s *MessageService) Unread(ctx context.Context, caller auth.Authenticated) ([]models.UnreadMessage, error) {
	return s.store.UnreadFor(ctx, caller.UserID)
}

// History returns the edit snapshots of a readable message.
func (s *MessageService) History(ctx context.Context, caller auth.Authenticated, id string) ([]models.MessageHistory, error) {
	if _, err := s.readable(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id)
}

// Thread returns every reply below a readable message, oldest first.
func (s *MessageService) Thread(ctx context.Context, caller auth.Authenticated, id string) ([]models.Message, error) {
	if _, err := s.readable(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.store.Thread(ctx, id)
}

// readable loads a message the caller may see: participants of its
// conversation and admins.
func (s *MessageService) readable(ctx context.Context, caller auth.Authenticated, id string) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == caller.UserID || msg.RecipientID == caller.UserID {
		return msg, nil
	}
	if err := s.requireParticipant(ctx, caller, msg.ConversationID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) requireParticipant(ctx context.Context, caller auth.Authenticated, conversationID string) error {
	if caller.Role == models.RoleAdmin {
		if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
			return err
		}
		return nil
	}
	ok, err := s.store.IsParticipant(ctx, conversationID, caller.UserID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}
