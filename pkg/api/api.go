// Package api defines the request and response messages of the SettleUp
// Connect services. Messages travel as JSON; amounts are decimal strings.
package api

import "github.com/shopspring/decimal"

// User is the public view of an account. Password hashes never leave the server.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Member is a participant of a group.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a named set of members sharing expenses.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	CreatorID string   `json:"creator_id"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Payment is one member's contribution to an expense.
type Payment struct {
	MemberID string          `json:"member_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"nonnegative_decimal,max_amount"`
}

// Expense is a shared cost paid by one or more members.
type Expense struct {
	ID        string          `json:"id"`
	GroupID   string          `json:"group_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Payments  []Payment       `json:"payments"`
	Settled   bool            `json:"settled"`
	CreatedAt int64           `json:"created_at"`
}

// Settlement is one transfer instruction: From pays To the given amount.
type Settlement struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Balance is a member's net position across all expenses of a group.
// Negative amounts are owed to the group, positive amounts are owed by it.
type Balance struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Net      string `json:"net"`
	Paid     string `json:"paid"`
	Owed     string `json:"owed"`
}
