package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

const minTitleLength = 3

// ConversationService manages conversations and their membership.
type ConversationService struct {
	store *store.Store
}

func NewConversationService(s *store.Store) *ConversationService {
	return &ConversationService{store: s}
}

// List returns the caller's conversations, optionally filtered by title.
func (s *ConversationService) List(ctx context.Context, caller auth.Authenticated, search string) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, caller.UserID, strings.TrimSpace(search))
}

// ListFor returns the conversations of userID. Only the user or an admin
// may look.
func (s *ConversationService) ListFor(ctx context.Context, caller auth.Authenticated, userID string) ([]models.Conversation, error) {
	if caller.UserID != userID && caller.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListConversations(ctx, userID, "")
}

// Create starts a conversation. The caller is always a participant.
func (s *ConversationService) Create(ctx context.Context, caller auth.Authenticated, req models.CreateConversationRequest) (*models.Conversation, error) {
	title, err := validTitle(req.Title)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{caller.UserID: true}
	ids := []string{caller.UserID}
	for _, id := range req.Participants {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, invalid("a conversation needs at least one other participant")
	}

	c := &models.Conversation{Title: title}
	if err := s.store.CreateConversation(ctx, c, ids); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("unknown participant")
		}
		return nil, err
	}

	log.Printf("[Conversation] %s created %s with %d participants", caller.Username, c.ID, len(ids))
	return s.store.GetConversation(ctx, c.ID)
}

// Get returns a conversation the caller participates in.
func (s *ConversationService) Get(ctx context.Context, caller auth.Authenticated, id string) (*models.Conversation, error) {
	c, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hasParticipant(c, caller.UserID) && caller.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return c, nil
}

// Rename changes the title of a conversation the caller participates in.
func (s *ConversationService) Rename(ctx context.Context, caller auth.Authenticated, id, title string) (*models.Conversation, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}
	if err := s.store.RenameConversation(ctx, id, title); err != nil {
		return nil, err
	}
	return s.store.GetConversation(ctx, id)
}

// Delete removes a conversation with all of its messages.
func (s *ConversationService) Delete(ctx context.Context, caller auth.Authenticated, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return err
	}
	log.Printf("[Conversation] %s deleted %s", caller.Username, id)
	return nil
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return "", invalid("title must be at least %d characters", minTitleLength)
	}
	return title, nil
}

func hasParticipant(c *models.Conversation, userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
