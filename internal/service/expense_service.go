package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// paymentTolerance is how far the payments may drift from the expense total.
var paymentTolerance = decimal.RequireFromString("0.1")

var errNotGroupCreator = errors.New("only the group creator can change its expenses")

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	stores *Stores
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(stores *Stores) *ExpenseService {
	return &ExpenseService{stores: stores}
}

// AddExpense records an expense in a group the caller created.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"payments_count", len(req.Msg.Payments),
	)

	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	store := s.stores.For(ctx)
	group, err := s.ownedGroup(ctx, store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	payments, err := groupPayments(group, req.Msg.Payments)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		GroupID:  group.ID,
		Title:    strings.TrimSpace(req.Msg.Title),
		Amount:   req.Msg.Amount,
		Payments: payments,
	}
	if paid := expense.TotalPaid(); paid.Sub(expense.Amount).Abs().GreaterThan(paymentTolerance) {
		err := fmt.Errorf("payments total %s but the expense is %s", paid.StringFixed(2), expense.Amount.StringFixed(2))
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense added", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	store := s.stores.For(ctx)
	if _, err := store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Warn("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	expenses, err := store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// SetExpenseSettled marks an expense as settled or unsettled. The flag is
// informational; balances always include every expense.
func (s *ExpenseService) SetExpenseSettled(ctx context.Context, req *connect.Request[api.SetExpenseSettledRequest]) (*connect.Response[api.SetExpenseSettledResponse], error) {
	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SetExpenseSettled request received", "expense_id", req.Msg.ExpenseID, "settled", req.Msg.Settled)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	store := s.stores.For(ctx)
	expense, err := s.ownedExpense(ctx, store, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}

	if err := store.SetExpenseSettled(ctx, expense.ID, req.Msg.Settled); err != nil {
		slog.Error("SetExpenseSettled failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	expense.Settled = req.Msg.Settled

	return connect.NewResponse(&api.SetExpenseSettledResponse{Expense: expenseToAPI(expense)}), nil
}

// DeleteExpense removes an expense from a group the caller created.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	store := s.stores.For(ctx)
	expense, err := s.ownedExpense(ctx, store, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ownedGroup loads a group and checks that userID created it.
func (s *ExpenseService) ownedGroup(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("Group lookup failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	if group.CreatorID != userID {
		slog.Warn("Group access denied", "group_id", groupID, "user_id", userID)
		return nil, connect.NewError(connect.CodePermissionDenied, errNotGroupCreator)
	}
	return group, nil
}

// ownedExpense loads an expense and checks that userID created its group.
func (s *ExpenseService) ownedExpense(ctx context.Context, store storage.Store, expenseID, userID string) (*models.Expense, error) {
	expense, err := store.GetExpense(ctx, expenseID)
	if err != nil {
		slog.Warn("Expense lookup failed", "expense_id", expenseID, "error", err)
		return nil, toConnectError(err)
	}
	if _, err := s.ownedGroup(ctx, store, expense.GroupID, userID); err != nil {
		return nil, err
	}
	return expense, nil
}

// groupPayments converts payments, rejecting payers outside the group.
func groupPayments(group *models.Group, payments []api.Payment) ([]models.Payment, error) {
	out := make([]models.Payment, len(payments))
	for i, p := range payments {
		if !group.HasMember(p.MemberID) {
			return nil, fmt.Errorf("payments[%d]: %q is not a member of the group", i, p.MemberID)
		}
		out[i] = models.Payment{MemberID: p.MemberID, Amount: p.Amount}
	}
	return out, nil
}
