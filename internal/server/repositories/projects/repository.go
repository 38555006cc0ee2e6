package projects

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Project) (int64, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
	Lock(ctx context.Context, id int64) error
	LockShared(ctx context.Context, id int64) error
	SetOwner(ctx context.Context, id int64, ownerID string) error
	SetScope(ctx context.Context, id int64, scope models.Scope, groupID *int64) error
	DetachGroup(ctx context.Context, groupID int64) (int64, error)
	ListVisible(ctx context.Context, userID string) ([]models.Project, error)
	IsVisible(ctx context.Context, id int64, userID string) (bool, error)

	Goals(ctx context.Context, projectID int64) ([]models.Goal, error)
	UpsertGoal(ctx context.Context, goal models.Goal) error
	DeleteGoal(ctx context.Context, projectID int64, itemID string) error
}
