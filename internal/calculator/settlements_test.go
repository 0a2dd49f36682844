package calculator

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func members(names ...string) []Member {
	out := make([]Member, len(names))
	for i, name := range names {
		out[i] = Member{ID: "id-" + name, Name: name}
	}
	return out
}

func expense(amount string, payments ...Payment) ExpenseForBalance {
	return ExpenseForBalance{Amount: decimal.RequireFromString(amount), Payments: payments}
}

func paid(name, amount string) Payment {
	return Payment{MemberID: "id-" + name, Amount: decimal.RequireFromString(amount)}
}

func TestCalculateSettlements(t *testing.T) {
	tests := []struct {
		name     string
		members  []Member
		expenses []ExpenseForBalance
		want     []Settlement
	}{
		{
			name:     "even split",
			members:  members("A", "B"),
			expenses: []ExpenseForBalance{expense("100.00", paid("A", "100.00"))},
			want:     []Settlement{{From: "B", To: "A", Amount: "50.00"}},
		},
		{
			name:     "remainder charged to first listed members",
			members:  members("B", "C", "A"),
			expenses: []ExpenseForBalance{expense("100.00", paid("A", "100.00"))},
			// B is charged 33.34, C and A 33.33 each
			want: []Settlement{
				{From: "B", To: "A", Amount: "33.34"},
				{From: "C", To: "A", Amount: "33.33"},
			},
		},
		{
			name:     "payer listed first absorbs the extra cent",
			members:  members("A", "B", "C"),
			expenses: []ExpenseForBalance{expense("100.00", paid("A", "100.00"))},
			want: []Settlement{
				{From: "B", To: "A", Amount: "33.33"},
				{From: "C", To: "A", Amount: "33.33"},
			},
		},
		{
			name:     "already settled",
			members:  members("A", "B"),
			expenses: []ExpenseForBalance{expense("50.00", paid("A", "25.00"), paid("B", "25.00"))},
			want:     []Settlement{},
		},
		{
			name:    "multiple expenses netting out",
			members: members("A", "B"),
			expenses: []ExpenseForBalance{
				expense("100.00", paid("A", "100.00")),
				expense("100.00", paid("B", "100.00")),
			},
			want: []Settlement{},
		},
		{
			name:     "single member",
			members:  members("A"),
			expenses: []ExpenseForBalance{expense("42.42", paid("A", "42.42"))},
			want:     []Settlement{},
		},
		{
			name:     "no expenses",
			members:  members("A", "B", "C"),
			expenses: nil,
			want:     []Settlement{},
		},
		{
			name:     "zero amount expense is a no-op",
			members:  members("A", "B"),
			expenses: []ExpenseForBalance{expense("0")},
			want:     []Settlement{},
		},
		{
			name:    "largest debt pairs with largest credit",
			members: members("A", "B", "C", "D"),
			expenses: []ExpenseForBalance{
				// each share 30.00
				expense("120.00", paid("A", "90.00"), paid("B", "30.00")),
				// each share 10.00
				expense("40.00", paid("C", "40.00")),
			},
			// A +50, B -10, C 0, D -40
			want: []Settlement{
				{From: "D", To: "A", Amount: "40.00"},
				{From: "B", To: "A", Amount: "10.00"},
			},
		},
		{
			name:    "split payments across several creditors",
			members: members("A", "B", "C"),
			expenses: []ExpenseForBalance{
				// each share 30.00: A +30, B +0, C -30
				expense("90.00", paid("A", "60.00"), paid("B", "30.00")),
				// each share 20.00: A -20, B +40, C -20
				expense("60.00", paid("B", "60.00")),
			},
			// A +10, B +40, C -50
			want: []Settlement{
				{From: "C", To: "B", Amount: "40.00"},
				{From: "C", To: "A", Amount: "10.00"},
			},
		},
		{
			name:     "payments from strangers are ignored",
			members:  members("A", "B"),
			expenses: []ExpenseForBalance{expense("10.00", paid("A", "10.00"), Payment{MemberID: "ghost", Amount: decimal.NewFromInt(5)})},
			want:     []Settlement{{From: "B", To: "A", Amount: "5.00"}},
		},
		{
			name:     "dust inside the dead zone is not settled",
			members:  members("A", "B", "C"),
			expenses: []ExpenseForBalance{expense("0.03", paid("A", "0.02"), paid("B", "0.01"))},
			want:     []Settlement{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSettlements(tt.members, tt.expenses)
			if err != nil {
				t.Fatalf("CalculateSettlements() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CalculateSettlements() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateSettlements_NoMembers(t *testing.T) {
	_, err := CalculateSettlements(nil, []ExpenseForBalance{expense("10.00")})
	if !errors.Is(err, ErrNoMembers) {
		t.Fatalf("expected ErrNoMembers, got %v", err)
	}
}

func TestCalculateSettlements_AmountOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		expenses []ExpenseForBalance
	}{
		{name: "expense beyond int64 cents", expenses: []ExpenseForBalance{expense("1e20", paid("A", "1e20"))}},
		{name: "payment beyond int64 cents", expenses: []ExpenseForBalance{expense("10.00", paid("A", "1e20"))}},
		{
			name: "running total overflows",
			expenses: []ExpenseForBalance{
				expense("90000000000000000.00", paid("A", "90000000000000000.00")),
				expense("90000000000000000.00", paid("A", "90000000000000000.00")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateSettlements(members("A", "B"), tt.expenses)
			if !errors.Is(err, ErrAmountOutOfRange) {
				t.Fatalf("CalculateSettlements() error = %v, want ErrAmountOutOfRange", err)
			}
		})
	}
}

func TestCalculateSettlements_LargeAmount(t *testing.T) {
	got, err := CalculateSettlements(members("A", "B"), []ExpenseForBalance{expense("1000000000000", paid("A", "1000000000000"))})
	if err != nil {
		t.Fatalf("CalculateSettlements() error = %v", err)
	}
	want := []Settlement{{From: "B", To: "A", Amount: "500000000000.00"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CalculateSettlements() = %+v, want %+v", got, want)
	}
}

func TestCalculateSettlements_RemainderScenarioTotal(t *testing.T) {
	got, err := CalculateSettlements(members("B", "C", "A"), []ExpenseForBalance{expense("100.00", paid("A", "100.00"))})
	if err != nil {
		t.Fatalf("CalculateSettlements() error = %v", err)
	}

	total := decimal.Zero
	for _, s := range got {
		if s.To != "A" {
			t.Errorf("expected every settlement to pay A, got %+v", s)
		}
		total = total.Add(decimal.RequireFromString(s.Amount))
	}
	if total.StringFixed(2) != "66.67" {
		t.Errorf("settlements total %s, want 66.67", total.StringFixed(2))
	}
}

func TestCalculateBalances(t *testing.T) {
	balances, err := CalculateBalances(members("A", "B", "C"), []ExpenseForBalance{
		expense("100.00", paid("A", "100.00")),
		expense("30.01", paid("B", "30.01")),
	})
	if err != nil {
		t.Fatalf("CalculateBalances() error = %v", err)
	}

	want := []MemberBalance{
		// owed 3334 + 1001, paid 10000
		{MemberID: "id-A", MemberName: "A", NetCents: 5665, PaidCents: 10000, OwedCents: 4335},
		// owed 3333 + 1000, paid 3001
		{MemberID: "id-B", MemberName: "B", NetCents: -1332, PaidCents: 3001, OwedCents: 4333},
		// owed 3333 + 1000
		{MemberID: "id-C", MemberName: "C", NetCents: -4333, PaidCents: 0, OwedCents: 4333},
	}
	if !reflect.DeepEqual(balances, want) {
		t.Errorf("CalculateBalances() = %+v, want %+v", balances, want)
	}
}

// randomGroup builds a group whose expenses are internally consistent:
// payments always add up to the expense amount. With whole set, amounts split
// into whole currency units per member and payments are whole units, so no
// balance lands inside the dead zone.
func randomGroup(r *rand.Rand, whole bool) ([]Member, []ExpenseForBalance) {
	n := 1 + r.Intn(9)
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	ms := members(names...)

	unit := int64(1)
	if whole {
		unit = 100
	}

	expenses := make([]ExpenseForBalance, r.Intn(25))
	for i := range expenses {
		units := int64(1 + r.Intn(50000))
		if whole {
			units = int64(1+r.Intn(500)) * int64(n)
		}
		remaining := units
		var payments []Payment
		for remaining > 0 {
			part := 1 + r.Int63n(remaining)
			if r.Intn(3) == 0 {
				part = remaining
			}
			payer := ms[r.Intn(n)]
			payments = append(payments, Payment{MemberID: payer.ID, Amount: decimal.New(part*unit, -2)})
			remaining -= part
		}
		expenses[i] = ExpenseForBalance{Amount: decimal.New(units*unit, -2), Payments: payments}
	}
	return ms, expenses
}

// applySettlements executes every settlement against the balances and returns
// the resulting net cents by member name.
func applySettlements(t *testing.T, balances []MemberBalance, settlements []Settlement) map[string]int64 {
	t.Helper()
	net := make(map[string]int64, len(balances))
	for _, b := range balances {
		net[b.MemberName] = b.NetCents
	}
	for _, s := range settlements {
		cents, err := ToCents(decimal.RequireFromString(s.Amount))
		if err != nil {
			t.Fatalf("settlement amount %q: %v", s.Amount, err)
		}
		if cents <= 0 {
			t.Fatalf("settlement with non-positive amount: %+v", s)
		}
		net[s.From] += cents
		net[s.To] -= cents
	}
	return net
}

func TestCalculateSettlements_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(20240611))

	for iter := 0; iter < 500; iter++ {
		ms, expenses := randomGroup(r, false)

		balances, err := CalculateBalances(ms, expenses)
		if err != nil {
			t.Fatalf("iteration %d: CalculateBalances() error = %v", iter, err)
		}

		var sum int64
		for _, b := range balances {
			sum += b.NetCents
		}
		if sum != 0 {
			t.Fatalf("iteration %d: balances sum to %d, want 0", iter, sum)
		}

		settlements, err := CalculateSettlements(ms, expenses)
		if err != nil {
			t.Fatalf("iteration %d: CalculateSettlements() error = %v", iter, err)
		}
		if len(settlements) > len(ms)-1 {
			t.Fatalf("iteration %d: %d settlements for %d members", iter, len(settlements), len(ms))
		}

		again, _ := CalculateSettlements(ms, expenses)
		if !reflect.DeepEqual(settlements, again) {
			t.Fatalf("iteration %d: repeated call differs: %+v vs %+v", iter, settlements, again)
		}

		var owing, owed bool
		for _, cents := range applySettlements(t, balances, settlements) {
			owing = owing || cents < -deadZone
			owed = owed || cents > deadZone
		}
		if owing && owed {
			t.Fatalf("iteration %d: debtors and creditors both left unmatched", iter)
		}
	}
}

func TestCalculateSettlements_FullResolution(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for iter := 0; iter < 300; iter++ {
		ms, expenses := randomGroup(r, true)

		balances, err := CalculateBalances(ms, expenses)
		if err != nil {
			t.Fatalf("iteration %d: CalculateBalances() error = %v", iter, err)
		}
		settlements, err := CalculateSettlements(ms, expenses)
		if err != nil {
			t.Fatalf("iteration %d: CalculateSettlements() error = %v", iter, err)
		}

		for name, cents := range applySettlements(t, balances, settlements) {
			if abs(cents) > deadZone {
				t.Fatalf("iteration %d: %s left with %d cents after settling", iter, name, cents)
			}
		}
	}
}
