package handlers

import (
	"net/http"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/services"
)

// AuthHandler issues and refreshes tokens.
type AuthHandler struct {
	users  *services.UserService
	issuer *auth.Issuer
}

func NewAuthHandler(users *services.UserService, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

// Token handles POST /api/v1/token
// Exchanges a username and password for an access/refresh pair.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.issuer.Issue(u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/v1/token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	claims, err := h.issuer.ParseRefresh(req.Refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		writeError(w, auth.ErrInvalidToken)
		return
	}

	access, err := h.issuer.Access(u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Access: access})
}
