package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateExpense inserts an expense and its payments in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, expense.GroupID).Scan(&exists); err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO expenses (id, group_id, title, amount, settled, created_at) VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		expense.ID, expense.GroupID, expense.Title, expense.Amount.String(), expense.Settled, expense.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range expense.Payments {
		batch.Queue(`INSERT INTO payments (expense_id, position, member_id, amount) VALUES ($1, $2, $3, $4::numeric)`,
			expense.ID, i, p.MemberID, p.Amount.String())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetExpense loads an expense and its payments.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, group_id, title, amount::text, settled, created_at FROM expenses WHERE id = $1`, expenseID)
	expense, err := scanExpense(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query expense: %w", err)
	}

	payments, err := s.listPayments(ctx, []string{expense.ID})
	if err != nil {
		return nil, err
	}
	expense.Payments = payments[expense.ID]
	return expense, nil
}

// ListExpensesByGroup returns the group's expenses, newest first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, title, amount::text, settled, created_at
		 FROM expenses WHERE group_id = $1 ORDER BY created_at DESC, seq DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	var expenses []*models.Expense
	var ids []string
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		ids = append(ids, expense.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	payments, err := s.listPayments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		e.Payments = payments[e.ID]
	}
	return expenses, nil
}

// SetExpenseSettled updates the settled flag of an expense.
func (s *Store) SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE expenses SET settled = $1 WHERE id = $2`, settled, expenseID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense; payments cascade.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	var amount string
	if err := row.Scan(&e.ID, &e.GroupID, &e.Title, &amount, &e.Settled, &e.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = d
	return &e, nil
}

func (s *Store) listPayments(ctx context.Context, expenseIDs []string) (map[string][]models.Payment, error) {
	payments := make(map[string][]models.Payment, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return payments, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT expense_id, member_id, amount::text FROM payments
		 WHERE expense_id = ANY($1) ORDER BY expense_id, position`, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, memberID, amount string
		if err := rows.Scan(&expenseID, &memberID, &amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse payment amount %q: %w", amount, err)
		}
		payments[expenseID] = append(payments[expenseID], models.Payment{MemberID: memberID, Amount: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
