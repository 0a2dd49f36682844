package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateGroup inserts a group and its members in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = models.DefaultCurrency
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, currency, creator_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		group.ID, group.Name, group.Currency, group.CreatorID, group.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range group.Members {
		member := &group.Members[i]
		if member.ID == "" {
			member.ID = uuid.New().String()
		}
		batch.Queue(`INSERT INTO group_members (id, group_id, position, name) VALUES ($1, $2, $3, $4)`,
			member.ID, group.ID, i, member.Name)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetGroup loads a group and its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, currency, creator_id, created_at FROM groups WHERE id = $1`, groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.CreatorID, &group.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}

	members, err := s.listMembers(ctx, []string{groupID})
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]
	return &group, nil
}

// ListGroupsByCreator returns the creator's groups, newest first.
func (s *Store) ListGroupsByCreator(ctx context.Context, creatorID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, currency, creator_id, created_at
		 FROM groups WHERE creator_id = $1 ORDER BY created_at DESC, seq DESC`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}

	var groups []*models.Group
	var ids []string
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Currency, &g.CreatorID, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, &g)
		ids = append(ids, g.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	members, err := s.listMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.Members = members[g.ID]
	}
	return groups, nil
}

// DeleteGroup removes a group owned by creatorID; members and expenses cascade.
func (s *Store) DeleteGroup(ctx context.Context, groupID, creatorID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1 AND creator_id = $2`, groupID, creatorID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) listMembers(ctx context.Context, groupIDs []string) (map[string][]models.Member, error) {
	members := make(map[string][]models.Member, len(groupIDs))
	if len(groupIDs) == 0 {
		return members, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT group_id, id, name FROM group_members WHERE group_id = ANY($1) ORDER BY group_id, position`,
		groupIDs)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		var m models.Member
		if err := rows.Scan(&groupID, &m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members[groupID] = append(members[groupID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}
