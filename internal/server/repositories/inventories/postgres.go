// Package inventories maps external inventory ids to internal ones.
package inventories

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

var errInventoryNotFound = fmt.Errorf("inventory %w", common.ErrNotFound)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, externalID string) (*models.Inventory, error) {
	inv := &models.Inventory{ExternalID: externalID}
	err := r.db.QueryRowContext(ctx, `INSERT INTO inventories (external_id) VALUES ($1) RETURNING id`, externalID).Scan(&inv.ID)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, common.Errorf(common.ErrIllegalState, "inventory is already tracked")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Inventory, error) {
	inv := &models.Inventory{}
	err := r.db.QueryRowContext(ctx, `SELECT id, external_id FROM inventories WHERE external_id = $1`, externalID).Scan(&inv.ID, &inv.ExternalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInventoryNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

// Delete removes the inventory; its stored items go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventories WHERE external_id = $1`, externalID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return errInventoryNotFound
	}
	return nil
}
