// Package projects persists projects and their goal items.
package projects

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

var (
	errProjectNotFound = fmt.Errorf("project %w", common.ErrNotFound)
	errGroupRequired   = common.Errorf(common.ErrIllegalState, "group_id is required for GROUP scope")
)

// visibleClause selects projects a user can see: public ones, their own, and
// GROUP-scoped ones for groups they belong to. $1 is the user id.
const visibleClause = `
	p.scope = 'PUBLIC'
	OR p.owner_id = $1
	OR (p.scope = 'GROUP' AND EXISTS (
		SELECT 1 FROM group_members m WHERE m.group_id = p.group_id AND m.user_id = $1))`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func groupArg(g *int64) any {
	if g == nil {
		return nil
	}
	return *g
}

func mapWriteErr(err error) error {
	switch {
	case pgerr.IsCheckViolation(err):
		return errGroupRequired
	case pgerr.IsForeignKeyViolation(err):
		return fmt.Errorf("group %w", common.ErrNotFound)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (int64, error) {
	query :=
		`INSERT INTO projects (name, description, scope, owner_id, group_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, string(p.Scope), p.OwnerID, groupArg(p.GroupID)).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return id, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT id, name, description, scope, owner_id, group_id FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errProjectNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Lock takes the project row FOR UPDATE. Inserts of new buckets referencing
// the project block until the holder finishes.
func (r *PostgresRepository) Lock(ctx context.Context, id int64) error {
	return r.lockRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, id)
}

// LockShared takes FOR KEY SHARE on the project row, which conflicts only
// with Lock and with deleting the project.
func (r *PostgresRepository) LockShared(ctx context.Context, id int64) error {
	return r.lockRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR KEY SHARE`, id)
}

func (r *PostgresRepository) lockRow(ctx context.Context, query string, id int64) error {
	var got int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errProjectNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the project and its goals. Attributed stock rows would be
// cascaded too, so callers release them first.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM projects WHERE id = $1`, id)
}

func (r *PostgresRepository) SetOwner(ctx context.Context, id int64, ownerID string) error {
	return r.execOne(ctx, `UPDATE projects SET owner_id = $2 WHERE id = $1`, id, ownerID)
}

func (r *PostgresRepository) SetScope(ctx context.Context, id int64, scope models.Scope, groupID *int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE projects SET scope = $2, group_id = $3 WHERE id = $1`, id, string(scope), groupArg(groupID))
	if err != nil {
		return mapWriteErr(err)
	}
	return checkOne(res)
}

// DetachGroup turns every project scoped to the group into a private one and
// returns how many were changed.
func (r *PostgresRepository) DetachGroup(ctx context.Context, groupID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE projects SET scope = 'PRIVATE', group_id = NULL WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// ListVisible returns the projects visible to the user sorted by id.
func (r *PostgresRepository) ListVisible(ctx context.Context, userID string) ([]models.Project, error) {
	query := `SELECT p.id, p.name, p.description, p.scope, p.owner_id, p.group_id FROM projects p WHERE` +
		visibleClause + `
		 ORDER BY p.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) IsVisible(ctx context.Context, id int64, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM projects p WHERE p.id = $2 AND (` + visibleClause + `))`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Goals(ctx context.Context, projectID int64) ([]models.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, item_id, goal_quantity FROM project_goals WHERE project_id = $1 ORDER BY item_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ProjectID, &g.ItemID, &g.Quantity); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// UpsertGoal sets the target quantity, replacing any previous goal for the item.
func (r *PostgresRepository) UpsertGoal(ctx context.Context, goal models.Goal) error {
	query :=
		`INSERT INTO project_goals (project_id, item_id, goal_quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, item_id) DO UPDATE SET goal_quantity = EXCLUDED.goal_quantity`

	_, err := r.db.ExecContext(ctx, query, goal.ProjectID, goal.ItemID, goal.Quantity)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return errProjectNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteGoal(ctx context.Context, projectID int64, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project_goals WHERE project_id = $1 AND item_id = $2`, projectID, itemID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.Errorf(common.ErrNotFound, "item is not tracked by this project")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p     models.Project
		scope string
		group sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &scope, &p.OwnerID, &group); err != nil {
		return nil, err
	}
	p.Scope = models.Scope(scope)
	if group.Valid {
		g := group.Int64
		p.GroupID = &g
	}
	return &p, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkOne(res)
}

func checkOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return errProjectNotFound
	}
	return nil
}
