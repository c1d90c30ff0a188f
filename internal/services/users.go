package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/store"
)

const minPasswordLength = 8

// UserService handles registration, login and account management.
type UserService struct {
	store *store.Store
}

func NewUserService(s *store.Store) *UserService {
	return &UserService{store: s}
}

// Register creates an account on behalf of caller. Only admins may hand out
// the admin or moderator roles.
func (s *UserService) Register(ctx context.Context, caller auth.Identity, req models.CreateUserRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleGuest
	}
	if req.Role == models.RoleAdmin || req.Role == models.RoleModerator {
		if a, ok := caller.(auth.Authenticated); !ok || a.Role != models.RoleAdmin {
			return nil, ErrForbidden
		}
	}
	return s.Create(ctx, req)
}

// Create validates req and inserts the user without any permission check.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" {
		return nil, invalid("username is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, invalid("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	if req.Role == "" {
		req.Role = models.RoleGuest
	}
	if !req.Role.Valid() {
		return nil, invalid("unknown role %q", req.Role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Bio:          req.Bio,
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("username or email already taken")
		}
		return nil, err
	}

	log.Printf("[User] Registered %s (%s)", u.Username, u.Role)
	return u, nil
}

// Login checks a username/password pair.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the active or inactive user with the given ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies a partial update. Users may edit themselves; admins may
// edit anyone and are the only ones allowed to change roles.
func (s *UserService) Update(ctx context.Context, caller auth.Authenticated, id string, req models.UpdateUserRequest) (*models.User, error) {
	if caller.UserID != id && caller.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return nil, invalid("a valid email is required")
		}
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return nil, invalid("password must be at least %d characters", minPasswordLength)
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if req.Role != nil && *req.Role != u.Role {
		if caller.Role != models.RoleAdmin {
			return nil, ErrForbidden
		}
		if !req.Role.Valid() {
			return nil, invalid("unknown role %q", *req.Role)
		}
		u.Role = *req.Role
	}

	if err := s.store.SaveUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("email already taken")
		}
		return nil, err
	}
	return u, nil
}

// Delete removes a user and all dependent records.
func (s *UserService) Delete(ctx context.Context, caller auth.Authenticated, id string) error {
	if caller.UserID != id && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.Printf("[User] Deleted %s", id)
	return nil
}
