package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/pkg/api"
)

func addExpenseRequest(t *testing.T, group *api.Group, amount string, payments map[string]string) *api.AddExpenseRequest {
	t.Helper()
	req := &api.AddExpenseRequest{
		GroupID: group.ID,
		Title:   "Groceries",
		Amount:  decimal.RequireFromString(amount),
	}
	for _, m := range group.Members {
		if a, ok := payments[m.Name]; ok {
			req.Payments = append(req.Payments, api.Payment{MemberID: m.ID, Amount: decimal.RequireFromString(a)})
		}
	}
	return req
}

func TestAddExpense(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "alice@example.com")
	group := env.createGroup(t, token, "Alice", "Bob")

	resp, err := env.expenses.AddExpense(context.Background(), withToken(
		addExpenseRequest(t, group, "45.50", map[string]string{"Alice": "40", "Bob": "5.50"}), token))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	expense := resp.Msg.Expense
	if expense.ID == "" || expense.GroupID != group.ID {
		t.Errorf("unexpected expense: %+v", expense)
	}
	if !expense.Amount.Equal(decimal.RequireFromString("45.5")) {
		t.Errorf("amount: got %s, want 45.50", expense.Amount)
	}
	if len(expense.Payments) != 2 || expense.Settled {
		t.Errorf("unexpected payments or settled flag: %+v", expense)
	}
}

func TestAddExpense_PaymentTolerance(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "alice@example.com")
	group := env.createGroup(t, token, "Alice", "Bob")
	ctx := context.Background()

	tests := []struct {
		name    string
		paid    string
		wantErr bool
	}{
		{name: "exact", paid: "100"},
		{name: "within tolerance", paid: "99.90"},
		{name: "at tolerance above", paid: "100.10"},
		{name: "beyond tolerance", paid: "99.89", wantErr: true},
		{name: "far off", paid: "50", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.AddExpense(ctx, withToken(
				addExpenseRequest(t, group, "100", map[string]string{"Alice": tt.paid}), token))
			if tt.wantErr {
				assertCode(t, err, connect.CodeInvalidArgument)
				return
			}
			if err != nil {
				t.Fatalf("AddExpense failed: %v", err)
			}
		})
	}
}

func TestAddExpense_AmountLimit(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "alice@example.com")
	group := env.createGroup(t, token, "Alice", "Bob")
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  string
		paid    string
		wantErr bool
	}{
		{name: "at limit", amount: "1000000000000", paid: "1000000000000"},
		{name: "amount above limit", amount: "1000000000000.01", paid: "1000000000000", wantErr: true},
		{name: "amount far above limit", amount: "1e20", paid: "1e20", wantErr: true},
		{name: "payment above limit", amount: "1000000000000", paid: "1000000000000.05", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.AddExpense(ctx, withToken(
				addExpenseRequest(t, group, tt.amount, map[string]string{"Alice": tt.paid}), token))
			if tt.wantErr {
				assertCode(t, err, connect.CodeInvalidArgument)
				return
			}
			if err != nil {
				t.Fatalf("AddExpense failed: %v", err)
			}
		})
	}

	resp, err := env.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	settlements := resp.Msg.Settlements
	if len(settlements) != 1 || settlements[0].From != "Bob" || settlements[0].To != "Alice" || settlements[0].Amount != "500000000000.00" {
		t.Errorf("unexpected settlements: %+v", settlements)
	}
}

func TestAddExpense_Errors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")
	group := env.createGroup(t, alice, "Alice", "Bob")
	other := env.createGroup(t, alice, "Zed")
	ctx := context.Background()

	valid := func() *api.AddExpenseRequest {
		return addExpenseRequest(t, group, "10", map[string]string{"Alice": "10"})
	}

	tests := []struct {
		name   string
		mutate func(*api.AddExpenseRequest)
		token  string
		want   connect.Code
	}{
		{name: "unauthenticated", mutate: func(*api.AddExpenseRequest) {}, want: connect.CodeUnauthenticated},
		{name: "not the creator", mutate: func(*api.AddExpenseRequest) {}, token: bob, want: connect.CodePermissionDenied},
		{name: "zero amount", mutate: func(r *api.AddExpenseRequest) { r.Amount = decimal.Zero }, token: alice, want: connect.CodeInvalidArgument},
		{name: "negative payment", mutate: func(r *api.AddExpenseRequest) { r.Payments[0].Amount = decimal.NewFromInt(-10) }, token: alice, want: connect.CodeInvalidArgument},
		{name: "missing title", mutate: func(r *api.AddExpenseRequest) { r.Title = "" }, token: alice, want: connect.CodeInvalidArgument},
		{name: "no payments", mutate: func(r *api.AddExpenseRequest) { r.Payments = nil }, token: alice, want: connect.CodeInvalidArgument},
		{name: "payer outside group", mutate: func(r *api.AddExpenseRequest) { r.Payments[0].MemberID = other.Members[0].ID }, token: alice, want: connect.CodeInvalidArgument},
		{name: "unknown group", mutate: func(r *api.AddExpenseRequest) { r.GroupID = "nonexistent-id" }, token: alice, want: connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := env.expenses.AddExpense(ctx, withToken(req, tt.token))
			assertCode(t, err, tt.want)
		})
	}
}

func TestListSettleAndDeleteExpense(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "alice@example.com")
	group := env.createGroup(t, token, "Alice", "Bob")
	ctx := context.Background()

	added, err := env.expenses.AddExpense(ctx, withToken(
		addExpenseRequest(t, group, "20", map[string]string{"Alice": "20"}), token))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	expenseID := added.Msg.Expense.ID

	list, err := env.expenses.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 1 || list.Msg.Expenses[0].ID != expenseID {
		t.Fatalf("unexpected expenses: %+v", list.Msg.Expenses)
	}

	settled, err := env.expenses.SetExpenseSettled(ctx, withToken(&api.SetExpenseSettledRequest{ExpenseID: expenseID, Settled: true}, token))
	if err != nil {
		t.Fatalf("SetExpenseSettled failed: %v", err)
	}
	if !settled.Msg.Expense.Settled {
		t.Error("expected expense to be settled")
	}

	// Settled expenses still count toward balances.
	detail, err := env.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(detail.Msg.Settlements) != 1 || detail.Msg.Settlements[0].Amount != "10.00" {
		t.Errorf("unexpected settlements: %+v", detail.Msg.Settlements)
	}

	if _, err := env.expenses.DeleteExpense(ctx, withToken(&api.DeleteExpenseRequest{ExpenseID: expenseID}, token)); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	_, err = env.expenses.DeleteExpense(ctx, withToken(&api.DeleteExpenseRequest{ExpenseID: expenseID}, token))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.expenses.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{GroupID: "nonexistent-id"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestExpenseMutations_RequireCreator(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")
	group := env.createGroup(t, alice, "Alice", "Bob")
	ctx := context.Background()

	added, err := env.expenses.AddExpense(ctx, withToken(
		addExpenseRequest(t, group, "20", map[string]string{"Alice": "20"}), alice))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	expenseID := added.Msg.Expense.ID

	_, err = env.expenses.SetExpenseSettled(ctx, withToken(&api.SetExpenseSettledRequest{ExpenseID: expenseID, Settled: true}, bob))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.expenses.DeleteExpense(ctx, withToken(&api.DeleteExpenseRequest{ExpenseID: expenseID}, bob))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseID: expenseID}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGuestSession_IsolatedStore(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	session, err := env.auth.StartGuestSession(ctx, connect.NewRequest(&api.StartGuestSessionRequest{}))
	if err != nil {
		t.Fatalf("StartGuestSession failed: %v", err)
	}
	guestToken := session.Msg.Token

	group := env.createGroup(t, guestToken, "Alice", "Bob", "Charlie")
	if _, err := env.expenses.AddExpense(ctx, withToken(
		addExpenseRequest(t, group, "30", map[string]string{"Alice": "30"}), guestToken)); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	detail, err := env.groups.GetGroup(ctx, withToken(&api.GetGroupRequest{GroupID: group.ID}, guestToken))
	if err != nil {
		t.Fatalf("GetGroup as guest failed: %v", err)
	}
	want := []api.Settlement{
		{From: "Bob", To: "Alice", Amount: "10.00"},
		{From: "Charlie", To: "Alice", Amount: "10.00"},
	}
	if len(detail.Msg.Settlements) != len(want) {
		t.Fatalf("unexpected settlements: %+v", detail.Msg.Settlements)
	}
	for i := range want {
		if detail.Msg.Settlements[i] != want[i] {
			t.Errorf("settlement %d: got %+v, want %+v", i, detail.Msg.Settlements[i], want[i])
		}
	}

	// Guest data never reaches the shared store.
	_, err = env.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	assertCode(t, err, connect.CodeNotFound)

	other, err := env.auth.StartGuestSession(ctx, connect.NewRequest(&api.StartGuestSessionRequest{}))
	if err != nil {
		t.Fatalf("StartGuestSession failed: %v", err)
	}
	_, err = env.groups.GetGroup(ctx, withToken(&api.GetGroupRequest{GroupID: group.ID}, other.Msg.Token))
	assertCode(t, err, connect.CodeNotFound)

	mine, err := env.groups.ListMyGroups(ctx, withToken(&api.ListMyGroupsRequest{}, guestToken))
	if err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}
	if len(mine.Msg.Groups) != 1 {
		t.Errorf("expected guest to see 1 group, got %d", len(mine.Msg.Groups))
	}
}
