package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/billbatista/eventfund/store"
	"github.com/google/uuid"
)

type repository struct {
	store    store.Store
	keys     store.Keyspace
	duration time.Duration
	now      func() time.Time
}

func NewRepository(s store.Store, keys store.Keyspace, duration time.Duration) *repository {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &repository{store: s, keys: keys, duration: duration, now: time.Now}
}

func (r *repository) Create(ctx context.Context, username string) (*Session, error) {
	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	session := &Session{
		ID:        uuid.New(),
		Username:  username,
		Token:     token,
		ExpiresAt: now.Add(r.duration),
		CreatedAt: now,
	}

	if err := store.SetJSON(ctx, r.store, r.keys.Session(token), session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	return session, nil
}

// GetByToken retrieves a session by token and validates it's not expired.
// Expired sessions are removed on sight.
func (r *repository) GetByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	var session Session
	err := store.GetJSON(ctx, r.store, r.keys.Session(token), &session)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	if r.now().After(session.ExpiresAt) {
		if err := r.store.Remove(ctx, r.keys.Session(token)); err != nil {
			slog.Error("failed to remove expired session", "error", err, "username", session.Username)
		}
		return nil, ErrExpiredSession
	}

	return &session, nil
}

// Delete removes a session (logout)
func (r *repository) Delete(ctx context.Context, token string) error {
	return r.store.Remove(ctx, r.keys.Session(token))
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
