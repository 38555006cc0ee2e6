package groups

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string, ownerID string) (int64, error)
	Get(ctx context.Context, id int64) (*models.Group, error)
	Delete(ctx context.Context, id int64) error
	SetOwner(ctx context.Context, id int64, ownerID string) error
	AddMember(ctx context.Context, groupID int64, userID string) error
	RemoveMember(ctx context.Context, groupID int64, userID string) error
	IsMember(ctx context.Context, groupID int64, userID string) (bool, error)
	Members(ctx context.Context, groupID int64) ([]models.Member, error)
	ListForMember(ctx context.Context, userID string) ([]models.Group, error)
}
