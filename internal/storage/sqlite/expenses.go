package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateExpense persists a new expense with its payments.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", expense.GroupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, group_id, title, amount, settled, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Title, expense.Amount, expense.Settled, expense.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, p := range expense.Payments {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO payments (expense_id, position, member_id, amount) VALUES (?, ?, ?, ?)",
			expense.ID, i, p.MemberID, p.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its payments.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, title, amount, settled, created_at FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Title, &expense.Amount, &expense.Settled, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	payments, err := s.listPayments(ctx, []string{expense.ID})
	if err != nil {
		return nil, err
	}
	expense.Payments = payments[expense.ID]

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, title, amount, settled, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	var ids []string
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Title, &expense.Amount,
			&expense.Settled, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		ids = append(ids, expense.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	payments, err := s.listPayments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		expense.Payments = payments[expense.ID]
	}

	return expenses, nil
}

// SetExpenseSettled updates the settled flag of an expense.
func (s *SQLiteStore) SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET settled = ? WHERE id = ?",
		settled, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return expectAffected(result, "expense", expenseID)
}

// DeleteExpense removes an expense by ID. Payments cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectAffected(result, "expense", expenseID)
}

// listPayments loads the payments of the given expenses keyed by expense ID.
func (s *SQLiteStore) listPayments(ctx context.Context, expenseIDs []string) (map[string][]models.Payment, error) {
	payments := make(map[string][]models.Payment, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT expense_id, member_id, amount
		FROM payments
		WHERE expense_id IN (?` + repeatPlaceholder(len(expenseIDs)-1) + `)
		ORDER BY expense_id, position`

	args := make([]any, len(expenseIDs))
	for i, id := range expenseIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var p models.Payment
		if err := rows.Scan(&expenseID, &p.MemberID, &p.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments[expenseID] = append(payments[expenseID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

func expectAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
