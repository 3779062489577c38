package user

import (
	"context"
	"errors"
	"fmt"
)

// User is one entry of the users list. Password holds a bcrypt hash.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Repository interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	VerifyPassword(hashedPassword, password string) error
}

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var ErrValidation = errors.New("invalid input")

var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBlankUsername      = fmt.Errorf("%w: username is required", ErrValidation)
	ErrBlankPassword      = fmt.Errorf("%w: password is required", ErrValidation)
	ErrShortUsername      = fmt.Errorf("%w: username must be at least %d characters", ErrValidation, MinUsernameLength)
	ErrShortPassword      = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	ErrInvalidUsername    = fmt.Errorf("%w: username can't contain '/' or ':'", ErrValidation)
)
