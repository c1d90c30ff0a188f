package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// writeJSON is a helper function to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service and store errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials.")
	case errors.Is(err, services.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, store.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, store.ErrConflict):
		writeDetail(w, http.StatusConflict, "The resource was modified concurrently, retry.")
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// caller returns the authenticated caller, answering 401 itself when absent.
func caller(w http.ResponseWriter, r *http.Request) (auth.Authenticated, bool) {
	c, ok := auth.Caller(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return c, ok
}

// pagination reads page and page_size query parameters.
func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// selfOrAdmin guards routes nested under /users/{userID}.
func selfOrAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := caller(w, r)
		if !ok {
			return
		}
		if c.UserID != chi.URLParam(r, "userID") && c.Role != models.RoleAdmin {
			writeError(w, services.ErrForbidden)
			return
		}
		next(w, r)
	}
}
