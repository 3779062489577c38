package user

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/billbatista/eventfund/store"
	"golang.org/x/crypto/bcrypt"
)

type repository struct {
	store store.Store
	keys  store.Keyspace
	mu    sync.Mutex
}

func NewRepository(s store.Store, keys store.Keyspace) *repository {
	return &repository{store: s, keys: keys}
}

func (r *repository) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrBlankUsername
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, ErrShortUsername
	}
	if strings.ContainsAny(username, "/:") {
		return nil, ErrInvalidUsername
	}
	if password == "" {
		return nil, ErrBlankPassword
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrShortPassword
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(users, func(u User) bool { return u.Username == username }) {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		Username: username,
		Password: string(hashedPassword),
	}
	users = append(users, user)
	if err := store.SetJSON(ctx, r.store, r.keys.Users(), users); err != nil {
		return nil, fmt.Errorf("saving users: %w", err)
	}

	return &user, nil
}

// Authenticate returns ErrInvalidCredentials for unknown users and wrong
// passwords alike.
func (r *repository) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrBlankUsername
	}
	if password == "" {
		return nil, ErrBlankPassword
	}

	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := r.VerifyPassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByUsername returns nil, nil when no such user exists.
func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(users, func(u User) bool { return u.Username == username })
	if i < 0 {
		return nil, nil
	}
	return &users[i], nil
}

func (r *repository) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (r *repository) load(ctx context.Context) ([]User, error) {
	var users []User
	err := store.GetJSON(ctx, r.store, r.keys.Users(), &users)
	if errors.Is(err, store.ErrNotFound) {
		return []User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	return users, nil
}
