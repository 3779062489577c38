package ledger

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one
// of them, so callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var (
	ErrEmptyUsername       = fmt.Errorf("%w: username can't be empty", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: name can't be empty", ErrValidation)
	ErrNoExpenseTypes      = fmt.Errorf("%w: at least one expense type is required", ErrValidation)
	ErrBlankExpenseType    = fmt.Errorf("%w: expense type can't be blank", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	ErrPastDate            = fmt.Errorf("%w: date can't be in the past", ErrValidation)
	ErrAmountRequired      = fmt.Errorf("%w: amount is required", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be a number with at most 2 decimals", ErrValidation)
	ErrAmountNotPositive   = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrEmptyFundraiserName = fmt.Errorf("%w: fundraiser name is required", ErrValidation)
	ErrEmptyExpenseType    = fmt.Errorf("%w: expense type is required", ErrValidation)
	ErrEventExists         = fmt.Errorf("%w: an event with this name already exists", ErrValidation)

	ErrEventNotFound      = fmt.Errorf("event %w", ErrNotFound)
	ErrUnknownExpenseType = fmt.Errorf("expense type %w", ErrNotFound)
)
