// Package groups provides the PostgreSQL-backed group repository. Group
// ownership lives on the groups row; membership in group_members.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/pgerr"
)

var errGroupNotFound = fmt.Errorf("group %w", common.ErrNotFound)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, name string, ownerID string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO groups (name, owner_id) VALUES ($1, $2) RETURNING id`, name, ownerID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Group, error) {
	query :=
		`SELECT g.id, g.name, g.owner_id, u.display_name
		 FROM groups g JOIN users u ON u.id = g.owner_id
		 WHERE g.id = $1`

	g := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.OwnerID, &g.OwnerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

// Delete removes the group and, by cascade, its memberships. Projects scoped
// to the group must be detached first.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM groups WHERE id = $1`, id)
}

func (r *PostgresRepository) SetOwner(ctx context.Context, id int64, ownerID string) error {
	return r.execOne(ctx, `UPDATE groups SET owner_id = $2 WHERE id = $1`, id, ownerID)
}

func (r *PostgresRepository) AddMember(ctx context.Context, groupID int64, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, groupID, userID)
	if err != nil {
		switch {
		case pgerr.IsUniqueViolation(err):
			return common.Errorf(common.ErrIllegalState, "user is already a member of this group")
		case pgerr.IsForeignKeyViolation(err):
			return errGroupNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.Errorf(common.ErrNotFound, "user is not a member of this group")
	}
	return nil
}

func (r *PostgresRepository) IsMember(ctx context.Context, groupID int64, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Members(ctx context.Context, groupID int64) ([]models.Member, error) {
	query :=
		`SELECT m.user_id, u.display_name
		 FROM group_members m JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = $1
		 ORDER BY u.display_name`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// ListForMember returns the groups the user belongs to, ordered by id.
func (r *PostgresRepository) ListForMember(ctx context.Context, userID string) ([]models.Group, error) {
	query :=
		`SELECT g.id, g.name, g.owner_id, u.display_name
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 JOIN users u ON u.id = g.owner_id
		 WHERE m.user_id = $1
		 ORDER BY g.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.OwnerName); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return errGroupNotFound
	}
	return nil
}
