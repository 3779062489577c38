package ledger

type TypeTotal struct {
	Type  string `json:"type"`
	Total Amount `json:"total"`
	Count int    `json:"count"`
}

// Stats is a view derived from the ledger arrays on every call.
type Stats struct {
	TotalRaised     Amount      `json:"totalRaised"`
	TotalExpense    Amount      `json:"totalExpense"`
	Balance         Amount      `json:"balance"`
	FundraiserCount int         `json:"fundraiserCount"`
	ExpenseCount    int         `json:"expenseCount"`
	ByType          []TypeTotal `json:"byType"`
}

func TotalExpense(history []Expense) Amount {
	var total Amount
	for _, x := range history {
		total = total.Add(x.Amount)
	}
	return total
}

func TotalRaised(fundraisers []Fundraiser) Amount {
	var total Amount
	for _, f := range fundraisers {
		total = total.Add(f.Amount)
	}
	return total
}

// Statistics aggregates an event's ledger. ByType follows the order of the
// event's expense types and lists types without expenses too.
func Statistics(e Event) Stats {
	raised := TotalRaised(e.Fundraisers)
	spent := TotalExpense(e.History)

	byType := make([]TypeTotal, 0, len(e.ExpenseTypes))
	pos := make(map[string]int, len(e.ExpenseTypes))
	for _, t := range e.ExpenseTypes {
		if _, seen := pos[t]; seen {
			continue
		}
		pos[t] = len(byType)
		byType = append(byType, TypeTotal{Type: t})
	}
	for _, x := range e.History {
		i, ok := pos[x.Type]
		if !ok {
			continue
		}
		byType[i].Total = byType[i].Total.Add(x.Amount)
		byType[i].Count++
	}

	return Stats{
		TotalRaised:     raised,
		TotalExpense:    spent,
		Balance:         raised.Sub(spent),
		FundraiserCount: len(e.Fundraisers),
		ExpenseCount:    len(e.History),
		ByType:          byType,
	}
}
