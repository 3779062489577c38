// Package server exposes the ledger, user and profile operations as a JSON
// HTTP API.
package server

import (
	"net/http"

	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/middleware"
	"github.com/billbatista/eventfund/profile"
	"github.com/billbatista/eventfund/session"
	"github.com/billbatista/eventfund/user"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	events   *ledger.Service
	users    user.Repository
	sessions session.Repository
	profiles profile.Repository
	audit    eventlogger.Logger
}

func New(events *ledger.Service, users user.Repository, sessions session.Repository, profiles profile.Repository, audit eventlogger.Logger) *Server {
	if audit == nil {
		audit = eventlogger.Discard
	}
	return &Server{
		events:   events,
		users:    users,
		sessions: sessions,
		profiles: profiles,
		audit:    audit,
	}
}

func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.AuthMiddleware(s.sessions))

	// Public routes
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Post("/users/signup", s.signup)
	router.Post("/users/login", s.login)

	// Protected routes - require authentication
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/users/logout", s.logout)

		r.Get("/profile", s.getProfile)
		r.Put("/profile", s.saveProfile)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Post("/", s.createEvent)
			r.Get("/active", s.activeEvents)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.openEvent)
				r.Delete("/", s.deleteEvent)
				r.Get("/fundraisers", s.listFundraisers)
				r.Post("/fundraisers", s.addFundraiser)
				r.Post("/expenses", s.addExpense)
				r.Get("/history", s.history)
				r.Get("/statistics", s.statistics)
			})
		})
	})

	return router
}
