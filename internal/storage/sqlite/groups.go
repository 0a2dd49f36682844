package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateGroup persists a new group and its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = models.DefaultCurrency
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, creator_id, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Currency, group.CreatorID, group.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i := range group.Members {
		member := &group.Members[i]
		if member.ID == "" {
			member.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (id, group_id, position, name) VALUES (?, ?, ?, ?)",
			member.ID, group.ID, i, member.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, creator_id, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.CreatorID, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Members, err = s.listMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return group, nil
}

// ListGroupsByCreator retrieves the groups created by a user, newest first.
func (s *SQLiteStore) ListGroupsByCreator(ctx context.Context, creatorID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, currency, creator_id, created_at
		 FROM groups WHERE creator_id = ? ORDER BY created_at DESC, rowid DESC`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Currency, &group.CreatorID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	// Members are loaded after the group cursor is closed.
	for _, group := range groups {
		group.Members, err = s.listMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// DeleteGroup removes a group owned by creatorID. Members, expenses and
// payments go with it through ON DELETE CASCADE.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID, creatorID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM groups WHERE id = ? AND creator_id = ?",
		groupID, creatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	return nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM group_members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}
