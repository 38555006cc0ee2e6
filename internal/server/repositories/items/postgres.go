// Package items persists stored item quantities. Each row is one bucket
// keyed by (inventory, item, project); a NULL project is the unattributed
// bucket and is matched with IS NOT DISTINCT FROM.
package items

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

var errItemNotFound = fmt.Errorf("item %w", common.ErrNotFound)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func projectArg(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Ensure creates the bucket with quantity zero unless it already exists.
func (r *PostgresRepository) Ensure(ctx context.Context, key models.StockKey) error {
	query :=
		`INSERT INTO stored_items (inventory_id, item_id, project_id, item_count)
		 VALUES ($1, $2, $3, 0)
		 ON CONFLICT ON CONSTRAINT stored_items_bucket DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, key.InventoryID, key.ItemID, projectArg(key.ProjectID))
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return fmt.Errorf("project %w", common.ErrNotFound)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Lock reads the bucket quantity and holds a row lock until the enclosing
// transaction ends.
func (r *PostgresRepository) Lock(ctx context.Context, key models.StockKey) (int64, error) {
	query :=
		`SELECT item_count FROM stored_items
		 WHERE inventory_id = $1 AND item_id = $2 AND project_id IS NOT DISTINCT FROM $3
		 FOR UPDATE`

	var qty int64
	err := r.db.QueryRowContext(ctx, query, key.InventoryID, key.ItemID, projectArg(key.ProjectID)).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errItemNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return qty, nil
}

func (r *PostgresRepository) Set(ctx context.Context, key models.StockKey, qty int64) error {
	query :=
		`UPDATE stored_items SET item_count = $4
		 WHERE inventory_id = $1 AND item_id = $2 AND project_id IS NOT DISTINCT FROM $3`

	return r.execOne(ctx, query, key.InventoryID, key.ItemID, projectArg(key.ProjectID), qty)
}

// Delete removes exactly the addressed bucket; other projects' rows for the
// same item are left alone.
func (r *PostgresRepository) Delete(ctx context.Context, key models.StockKey) error {
	query :=
		`DELETE FROM stored_items
		 WHERE inventory_id = $1 AND item_id = $2 AND project_id IS NOT DISTINCT FROM $3`

	return r.execOne(ctx, query, key.InventoryID, key.ItemID, projectArg(key.ProjectID))
}

func (r *PostgresRepository) ListByInventory(ctx context.Context, inventoryID int64) ([]models.StoredItem, error) {
	query :=
		`SELECT inventory_id, item_id, project_id, item_count FROM stored_items
		 WHERE inventory_id = $1
		 ORDER BY item_id, project_id NULLS FIRST`

	return r.list(ctx, query, inventoryID)
}

// ListByProject returns every bucket attributed to the project, in lock order.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64) ([]models.StoredItem, error) {
	query :=
		`SELECT inventory_id, item_id, project_id, item_count FROM stored_items
		 WHERE project_id = $1
		 ORDER BY inventory_id, item_id`

	return r.list(ctx, query, projectID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg int64) ([]models.StoredItem, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.StoredItem
	for rows.Next() {
		var (
			it      models.StoredItem
			project sql.NullInt64
		)
		if err := rows.Scan(&it.InventoryID, &it.ItemID, &project, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if project.Valid {
			p := project.Int64
			it.ProjectID = &p
		}
		out = append(out, it)
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
		return errItemNotFound
	}
	return nil
}
