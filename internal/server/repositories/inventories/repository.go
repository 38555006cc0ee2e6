package inventories

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, externalID string) (*models.Inventory, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Inventory, error)
	Delete(ctx context.Context, externalID string) error
}
