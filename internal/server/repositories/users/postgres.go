// Package users provides the PostgreSQL-backed user repository.
package users

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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user. Any unique conflict (display name, external id or
// key digest) is reported as common.ErrDuplicateIdentity.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, display_name, external_id, key_digest)
		 VALUES ($1, $2, $3, $4)
		 `
	_, err := r.db.ExecContext(ctx, query, user.ID, user.DisplayName, user.ExternalID, user.KeyDigest)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrDuplicateIdentity
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, display_name, external_id, key_digest FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByKeyDigest(ctx context.Context, digest string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, display_name, external_id, key_digest FROM users WHERE key_digest = $1`, digest)
}

// GetByDisplayName matches case-insensitively.
func (r *PostgresRepository) GetByDisplayName(ctx context.Context, name string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, display_name, external_id, key_digest FROM users WHERE LOWER(display_name) = LOWER($1)`, name)
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, display_name, external_id, key_digest FROM users WHERE external_id = $1`, externalID)
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, id string, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET display_name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrDuplicateIdentity
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.DisplayName, &user.ExternalID, &user.KeyDigest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
