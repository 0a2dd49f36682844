package calculator

import "sort"

// deadZone is the residue, in cents, treated as fully settled.
const deadZone = 1

// Settlement is a single directed payment that reduces one debtor's and one
// creditor's outstanding balance.
type Settlement struct {
	From   string // Debtor name
	To     string // Creditor name
	Amount string // Decimal with two places
}

// CalculateSettlements turns a group's expenses into the payments that bring
// every member back to zero. It is CalculateBalances followed by MatchDebts;
// callers that also need the balances make the two calls themselves.
// It fails when members is empty or an amount is out of range.
func CalculateSettlements(members []Member, expenses []ExpenseForBalance) ([]Settlement, error) {
	balances, err := CalculateBalances(members, expenses)
	if err != nil {
		return nil, err
	}
	return MatchDebts(balances), nil
}

// MatchDebts pairs debtors with creditors using a greedy two-pointer sweep.
//
// Debtors are visited most negative first and creditors most positive first,
// ties keeping the order of balances. Each step moves min(debt, credit) from
// the current debtor to the current creditor, so at most len(balances)-1
// settlements are produced. Balances within one cent of zero are settled.
func MatchDebts(balances []MemberBalance) []Settlement {
	var debtors, creditors []MemberBalance
	for _, b := range balances {
		switch {
		case b.NetCents < -deadZone:
			debtors = append(debtors, b)
		case b.NetCents > deadZone:
			creditors = append(creditors, b)
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].NetCents < debtors[j].NetCents })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].NetCents > creditors[j].NetCents })

	settlements := make([]Settlement, 0, max(len(debtors)+len(creditors)-1, 0))
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := min(-debtor.NetCents, creditor.NetCents)
		if amount > 0 {
			settlements = append(settlements, Settlement{
				From:   debtor.MemberName,
				To:     creditor.MemberName,
				Amount: FormatCents(amount),
			})
		}

		debtor.NetCents += amount
		creditor.NetCents -= amount

		if abs(debtor.NetCents) <= deadZone {
			i++
		}
		if creditor.NetCents <= deadZone {
			j++
		}
	}

	return settlements
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
