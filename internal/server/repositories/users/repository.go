package users

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByKeyDigest(ctx context.Context, digest string) (*models.User, error)
	GetByDisplayName(ctx context.Context, name string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id string, name string) error
}
