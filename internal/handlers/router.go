package handlers

import (
	"net/http"

	"github.com/adi-253/parley/backend/internal/admission"
	"github.com/adi-253/parley/backend/internal/auth"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/adi-253/parley/backend/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds everything the router mounts.
type Deps struct {
	Store       *store.Store
	Issuer      *auth.Issuer
	Admission   *admission.Chain
	Hub         *websocket.Hub
	CORSOrigins []string
}

// NewRouter builds the HTTP surface. Every request is authenticated (a
// missing or bad token yields an anonymous identity) and then passes the
// admission chain before reaching a handler.
func NewRouter(d Deps) http.Handler {
	users := services.NewUserService(d.Store)
	authHandler := NewAuthHandler(users, d.Issuer)
	userHandler := NewUserHandler(users)
	conversationHandler := NewConversationHandler(services.NewConversationService(d.Store))
	messageHandler := NewMessageHandler(services.NewMessageService(d.Store))
	notificationHandler := NewNotificationHandler(services.NewNotificationService(d.Store))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(auth.Authenticate(d.Issuer, d.Store))
	if d.Admission != nil {
		r.Use(d.Admission.Middleware)
	}

	r.Get("/health", HealthCheck(d.Store))
	r.Handle("/metrics", promhttp.Handler())
	if d.Hub != nil {
		r.Get("/ws", websocket.NewHandler(d.Hub).ServeWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/token", authHandler.Token)
		r.Post("/token/refresh", authHandler.Refresh)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Register)
			r.Get("/{userID}", userHandler.Get)
			r.Patch("/{userID}", userHandler.Update)
			r.Delete("/{userID}", userHandler.Delete)
			r.Get("/{userID}/conversations", conversationHandler.ListForUser)
			r.Get("/{userID}/conversations/{conversationID}/messages", selfOrAdmin(messageHandler.ConversationMessages))
			r.Post("/{userID}/conversations/{conversationID}/messages", selfOrAdmin(messageHandler.SendMessage))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Post("/", conversationHandler.Create)
			r.Get("/{conversationID}", conversationHandler.Get)
			r.Patch("/{conversationID}", conversationHandler.Update)
			r.Delete("/{conversationID}", conversationHandler.Delete)
			r.Get("/{conversationID}/messages", messageHandler.ConversationMessages)
			r.Post("/{conversationID}/messages", messageHandler.SendMessage)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.GetMessages)
			r.Get("/unread", messageHandler.Unread)
			r.Get("/{messageID}", messageHandler.GetMessage)
			r.Patch("/{messageID}", messageHandler.EditMessage)
			r.Delete("/{messageID}", messageHandler.DeleteMessage)
			r.Get("/{messageID}/history", messageHandler.History)
			r.Get("/{messageID}/thread", messageHandler.Thread)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/{notificationID}/read", notificationHandler.MarkRead)
		})
	})

	return r
}
