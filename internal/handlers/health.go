package handlers

import (
	"net/http"
)

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Pinger checks a backing dependency.
type Pinger interface {
	Ping() error
}

// HealthCheck handles GET /health
// Returns the server's health status for monitoring and load balancer checks.
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "degraded",
				Message: "database unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Message: "Parley backend is running",
		})
	}
}
