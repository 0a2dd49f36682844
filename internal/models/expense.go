package models

import "github.com/shopspring/decimal"

// Expense is a shared cost recorded against a group.
// Every expense is split evenly across all group members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Title describes the expense (e.g., "Dinner", "Fuel").
	Title string

	// Amount is the expense total.
	Amount decimal.Decimal

	// Payments records who advanced how much. They add up to Amount
	// (checked when the expense is created).
	Payments []Payment

	// Settled is a display flag toggled by users. It does not exclude the
	// expense from balance calculations.
	Settled bool

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Payment is one member's contribution toward an expense.
type Payment struct {
	MemberID string
	Amount   decimal.Decimal
}

// TotalPaid sums the payment amounts.
func (e *Expense) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Payments {
		total = total.Add(p.Amount)
	}
	return total
}
