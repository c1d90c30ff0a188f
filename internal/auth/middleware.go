package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/adi-253/parley/backend/internal/models"
)

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Authenticate resolves the caller identity from the Authorization header
// (or the token query parameter used by websocket clients) and stores it in
// the request context. It never rejects: a missing or bad token simply
// yields Unauthenticated and the gates downstream decide.
func Authenticate(issuer *Issuer, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolve(r, issuer, users)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func resolve(r *http.Request, issuer *Issuer, users UserLookup) Identity {
	raw := bearerToken(r)
	if raw == "" {
		return Unauthenticated{}
	}

	claims, err := issuer.ParseAccess(raw)
	if err != nil {
		return Unauthenticated{}
	}

	// role and active flag come from the database, not the token
	u, err := users.GetUser(r.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		return Unauthenticated{}
	}
	return Authenticated{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
