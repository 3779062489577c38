package ledger

// Audit payloads recorded through the event logger.

const (
	EventTypeEventCreated    = "event.created"
	EventTypeEventDeleted    = "event.deleted"
	EventTypeFundraiserAdded = "fundraiser.added"
	EventTypeExpenseAdded    = "expense.added"
)

type EventCreatedEvent struct {
	Username     string   `json:"username"`
	EventID      int64    `json:"event_id"`
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	ExpenseTypes []string `json:"expense_types"`
}

type EventDeletedEvent struct {
	Username   string `json:"username"`
	EventID    int64  `json:"event_id"`
	Name       string `json:"name"`
	RecordKept bool   `json:"record_kept"`
}

type FundraiserAddedEvent struct {
	Event       string `json:"event"`
	Fundraiser  string `json:"fundraiser"`
	Amount      string `json:"amount"`
	TotalAmount string `json:"total_amount"`
}

type ExpenseAddedEvent struct {
	Event       string `json:"event"`
	Type        string `json:"type"` // one of the event's expense types
	Amount      string `json:"amount"`
	HasPhoto    bool   `json:"has_photo"`
	TotalAmount string `json:"total_amount"`
}
