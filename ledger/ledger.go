package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Event is the persisted ledger document of one fundraising event.
type Event struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Date         string       `json:"date"`
	ExpenseTypes []string     `json:"expenseTypes"`
	TotalAmount  Amount       `json:"totalAmount"`
	History      []Expense    `json:"history"`
	Fundraisers  []Fundraiser `json:"fundraisers"`
	Volunteers   []string     `json:"volunteers"`
}

type Expense struct {
	Type    string `json:"type"`
	Amount  Amount `json:"amount"`
	Message string `json:"message,omitempty"`
	Photo   string `json:"photo,omitempty"`
}

type Fundraiser struct {
	Name   string `json:"name"`
	Amount Amount `json:"amount"`
}

type NewEventInput struct {
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	ExpenseTypes []string `json:"expenseTypes"`
}

type FundraiserInput struct {
	Name   string     `json:"fundraiserName"`
	Amount AmountText `json:"amount"`
}

type ExpenseInput struct {
	Type    string     `json:"selectedExpenseType"`
	Amount  AmountText `json:"amount"`
	Message string     `json:"message,omitempty"`
	Photo   string     `json:"photo,omitempty"`
}

// NewEvent validates the creation form and returns a record with an empty
// ledger. The date may be today or later, compared by calendar day in now's
// location.
func NewEvent(in NewEventInput, now time.Time) (Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Event{}, ErrEmptyName
	}

	types, err := cleanExpenseTypes(in.ExpenseTypes)
	if err != nil {
		return Event{}, err
	}

	days, err := DaysUntil(in.Date, now)
	if err != nil {
		return Event{}, err
	}
	if days < 0 {
		return Event{}, ErrPastDate
	}

	return Event{
		ID:           now.UnixMilli(),
		Name:         name,
		Date:         strings.TrimSpace(in.Date),
		ExpenseTypes: types,
		History:      []Expense{},
		Fundraisers:  []Fundraiser{},
		Volunteers:   []string{},
	}, nil
}

// FromReference builds an empty record for an index entry whose document is
// missing. No date check is applied since the event already exists.
func FromReference(ref Reference) Event {
	return Event{
		ID:           ref.ID,
		Name:         ref.Name,
		Date:         ref.Date,
		ExpenseTypes: slices.Clone(ref.ExpenseTypes),
		History:      []Expense{},
		Fundraisers:  []Fundraiser{},
		Volunteers:   []string{},
	}
}

func cleanExpenseTypes(types []string) ([]string, error) {
	if len(types) == 0 {
		return nil, ErrNoExpenseTypes
	}
	cleaned := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, ErrBlankExpenseType
		}
		cleaned = append(cleaned, t)
	}
	return cleaned, nil
}

func (in FundraiserInput) Validate() (Fundraiser, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Fundraiser{}, ErrEmptyFundraiserName
	}
	amount, err := ParseAmount(string(in.Amount))
	if err != nil {
		return Fundraiser{}, err
	}
	return Fundraiser{Name: name, Amount: amount}, nil
}

func (in ExpenseInput) Validate() (Expense, error) {
	if strings.TrimSpace(in.Type) == "" {
		return Expense{}, ErrEmptyExpenseType
	}
	amount, err := ParseAmount(string(in.Amount))
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		Type:    strings.TrimSpace(in.Type),
		Amount:  amount,
		Message: in.Message,
		Photo:   in.Photo,
	}, nil
}

// AddFundraiser appends a contribution and credits the balance.
func (e *Event) AddFundraiser(in FundraiserInput) (Fundraiser, error) {
	f, err := in.Validate()
	if err != nil {
		return Fundraiser{}, err
	}

	e.Fundraisers = append(e.Fundraisers, f)
	e.TotalAmount = e.TotalAmount.Add(f.Amount)
	return f, nil
}

// AddExpense appends an expense and debits the balance. The record is left
// untouched when the expense is rejected.
func (e *Event) AddExpense(in ExpenseInput) (Expense, error) {
	x, err := in.Validate()
	if err != nil {
		return Expense{}, err
	}

	if !slices.Contains(e.ExpenseTypes, x.Type) {
		return Expense{}, fmt.Errorf("%w: %q", ErrUnknownExpenseType, x.Type)
	}

	if x.Amount.GreaterThan(e.TotalAmount.Decimal) {
		return Expense{}, fmt.Errorf("%w: expense of %s exceeds balance of %s", ErrInsufficientFunds, x.Amount, e.TotalAmount)
	}

	e.History = append(e.History, x)
	e.TotalAmount = e.TotalAmount.Sub(x.Amount)
	return x, nil
}

// Check reports the first ledger invariant the record violates.
func (e Event) Check() error {
	want := TotalRaised(e.Fundraisers).Sub(TotalExpense(e.History))
	if !want.Equal(e.TotalAmount.Decimal) {
		return fmt.Errorf("total amount %s does not match ledger balance %s", e.TotalAmount, want)
	}
	if e.TotalAmount.IsNegative() {
		return fmt.Errorf("total amount %s is negative", e.TotalAmount)
	}
	for _, x := range e.History {
		if !slices.Contains(e.ExpenseTypes, x.Type) {
			return fmt.Errorf("history references unknown expense type %q", x.Type)
		}
	}
	return nil
}

// normalize fills the arrays older documents may omit.
func (e *Event) normalize() {
	if e.ExpenseTypes == nil {
		e.ExpenseTypes = []string{}
	}
	if e.History == nil {
		e.History = []Expense{}
	}
	if e.Fundraisers == nil {
		e.Fundraisers = []Fundraiser{}
	}
	if e.Volunteers == nil {
		e.Volunteers = []string{}
	}
}

// SearchFundraisers returns the fundraisers whose name contains query,
// ignoring case. An empty query matches everything.
func SearchFundraisers(e Event, query string) []Fundraiser {
	query = strings.ToLower(strings.TrimSpace(query))
	matches := make([]Fundraiser, 0, len(e.Fundraisers))
	for _, f := range e.Fundraisers {
		if strings.Contains(strings.ToLower(f.Name), query) {
			matches = append(matches, f)
		}
	}
	return matches
}
