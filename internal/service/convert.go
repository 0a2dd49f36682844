package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{ID: m.ID, Name: m.Name}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatorID: g.CreatorID,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func expenseToAPI(e *models.Expense) *api.Expense {
	payments := make([]api.Payment, len(e.Payments))
	for i, p := range e.Payments {
		payments[i] = api.Payment{MemberID: p.MemberID, Amount: p.Amount}
	}
	return &api.Expense{
		ID:        e.ID,
		GroupID:   e.GroupID,
		Title:     e.Title,
		Amount:    e.Amount,
		Payments:  payments,
		Settled:   e.Settled,
		CreatedAt: e.CreatedAt,
	}
}

// calculatorInput converts stored data into the calculator's types.
func calculatorInput(group *models.Group, expenses []*models.Expense) ([]calculator.Member, []calculator.ExpenseForBalance) {
	members := make([]calculator.Member, len(group.Members))
	for i, m := range group.Members {
		members[i] = calculator.Member{ID: m.ID, Name: m.Name}
	}

	forBalance := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		payments := make([]calculator.Payment, len(e.Payments))
		for j, p := range e.Payments {
			payments[j] = calculator.Payment{MemberID: p.MemberID, Amount: p.Amount}
		}
		forBalance[i] = calculator.ExpenseForBalance{Amount: e.Amount, Payments: payments}
	}
	return members, forBalance
}

func settlementsToAPI(settlements []calculator.Settlement) []api.Settlement {
	out := make([]api.Settlement, len(settlements))
	for i, s := range settlements {
		out[i] = api.Settlement{From: s.From, To: s.To, Amount: s.Amount}
	}
	return out
}

func balancesToAPI(balances []calculator.MemberBalance) []api.Balance {
	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{
			MemberID: b.MemberID,
			Name:     b.MemberName,
			Net:      calculator.FormatCents(b.NetCents),
			Paid:     calculator.FormatCents(b.PaidCents),
			Owed:     calculator.FormatCents(b.OwedCents),
		}
	}
	return out
}
