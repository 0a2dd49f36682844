package api

import "github.com/shopspring/decimal"

type AddExpenseRequest struct {
	GroupID  string          `json:"group_id" validate:"required"`
	Title    string          `json:"title" validate:"required,max=200"`
	Amount   decimal.Decimal `json:"amount" validate:"positive_decimal,max_amount"`
	Payments []Payment       `json:"payments" validate:"required,min=1,dive"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type SetExpenseSettledRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
	Settled   bool   `json:"settled"`
}

type SetExpenseSettledResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type DeleteExpenseResponse struct{}
