package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Member is a group member as seen by the calculator.
type Member struct {
	ID   string
	Name string
}

// Payment records how much one member advanced toward an expense.
type Payment struct {
	MemberID string
	Amount   decimal.Decimal
}

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount   decimal.Decimal
	Payments []Payment
}

// MemberBalance represents the balance information for one group member, in minor units.
type MemberBalance struct {
	MemberID   string
	MemberName string
	NetCents   int64 // Positive = owed money, Negative = owes money
	PaidCents  int64 // Total amount paid across all expenses
	OwedCents  int64 // Total share charged across all expenses
}

// CalculateBalances computes every member's net position across the given expenses.
// The result follows the order of members.
//
// Algorithm:
// - Each expense is converted to cents and split evenly (see SplitEvenly)
// - Every member is charged their share
// - Every payer is credited what they paid
//
// Amounts whose cents, or whose running totals, overflow int64 fail with
// ErrAmountOutOfRange. Payments from ids outside members are ignored. The caller guarantees that
// each expense's payments add up to its amount; when they do, the net
// balances sum to exactly zero.
func CalculateBalances(members []Member, expenses []ExpenseForBalance) ([]MemberBalance, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	index := make(map[string]int, len(members))
	balances := make([]MemberBalance, len(members))
	for i, m := range members {
		index[m.ID] = i
		balances[i] = MemberBalance{MemberID: m.ID, MemberName: m.Name}
	}

	for _, expense := range expenses {
		total, err := ToCents(expense.Amount)
		if err != nil {
			return nil, err
		}
		shares, err := SplitEvenly(total, len(members))
		if err != nil {
			return nil, err
		}
		for i, share := range shares {
			if balances[i].OwedCents, err = addCents(balances[i].OwedCents, share); err != nil {
				return nil, err
			}
		}

		for _, p := range expense.Payments {
			i, ok := index[p.MemberID]
			if !ok {
				continue
			}
			cents, err := ToCents(p.Amount)
			if err != nil {
				return nil, err
			}
			if balances[i].PaidCents, err = addCents(balances[i].PaidCents, cents); err != nil {
				return nil, err
			}
		}
	}

	for i := range balances {
		net, err := subCents(balances[i].PaidCents, balances[i].OwedCents)
		if err != nil || net == math.MinInt64 {
			return nil, ErrAmountOutOfRange
		}
		balances[i].NetCents = net
	}

	return balances, nil
}
