package items

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
)

// Repository stores item quantities per attribution bucket. Callers that
// read-modify-write must Ensure and Lock inside one transaction.
type Repository interface {
	Ensure(ctx context.Context, key models.StockKey) error
	Lock(ctx context.Context, key models.StockKey) (int64, error)
	Set(ctx context.Context, key models.StockKey, qty int64) error
	Delete(ctx context.Context, key models.StockKey) error
	ListByInventory(ctx context.Context, inventoryID int64) ([]models.StoredItem, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.StoredItem, error)
}
