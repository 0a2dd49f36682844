package models

// DefaultCurrency is used when a group is created without a currency.
const DefaultCurrency = "₹"

// Group represents a set of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Currency is the symbol shown next to amounts. Purely presentational.
	Currency string

	// CreatorID is the user (or guest session) that created the group.
	// Only the creator can add expenses or delete the group.
	CreatorID string

	// Members is the roster, in the order given at creation.
	// The order matters: extra cents from uneven splits go to the first members.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is one person in a group.
type Member struct {
	// ID is assigned by the store and stays stable across expenses.
	ID string

	// Name is the display name used in settlement instructions.
	Name string
}

// HasMember reports whether memberID belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}
