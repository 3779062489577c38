package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/middleware"
	"github.com/billbatista/eventfund/profile"
	"github.com/billbatista/eventfund/session"
)

const (
	EventTypeUserRegistered = "user.registered"
	EventTypeUserLoggedIn   = "user.logged_in"
	EventTypeProfileUpdated = "profile.updated"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	registered, err := s.users.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.startSession(w, r, registered.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeUserRegistered),
		eventlogger.WithActor(registered.Username),
		eventlogger.WithData(map[string]string{
			"username":   registered.Username,
			"session_id": sess.ID.String(),
		}),
	))

	writeJSON(w, http.StatusCreated, sessionResponse{
		Username:  sess.Username,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	authenticated, err := s.users.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.startSession(w, r, authenticated.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeUserLoggedIn),
		eventlogger.WithActor(authenticated.Username),
		eventlogger.WithData(map[string]string{
			"username":   authenticated.Username,
			"session_id": sess.ID.String(),
		}),
	))

	writeJSON(w, http.StatusOK, sessionResponse{
		Username:  sess.Username,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, username string) (*session.Session, error) {
	sess, err := s.sessions.Create(r.Context(), username)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.Token(r); token != "" {
		if err := s.sessions.Delete(r.Context(), token); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())

	p, err := s.profiles.Get(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())

	var in profile.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.profiles.Save(r.Context(), username, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeProfileUpdated),
		eventlogger.WithActor(username),
		eventlogger.WithData(map[string]any{
			"username":  username,
			"user_name": p.UserName,
			"has_image": p.ProfileImage != nil,
		}),
	))
	writeJSON(w, http.StatusOK, p)
}
