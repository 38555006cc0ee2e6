package dispatch

import (
	"context"

	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/services"
)

// Users backs the handshake.
type Users interface {
	Register(ctx context.Context, displayName string) (*models.User, string, error)
	Resume(ctx context.Context, displayName, key string) (*models.User, error)
}

type Groups interface {
	Create(ctx context.Context, ownerID, name string) (int64, error)
	Delete(ctx context.Context, groupID int64) error
	AddMember(ctx context.Context, groupID int64, actorID, memberName string) error
	RemoveMember(ctx context.Context, groupID int64, memberName string) error
	Leave(ctx context.Context, groupID int64, userID string) error
	Transfer(ctx context.Context, groupID int64, actorID, newOwnerName string) error
	Info(ctx context.Context, groupID int64, viewerID string, withIDs bool) (*services.GroupInfo, error)
	List(ctx context.Context, userID string) ([]models.Group, error)
	IsOwner(ctx context.Context, groupID int64, userID string) (bool, error)
}

type Projects interface {
	Create(ctx context.Context, ownerID, name, description string, scope models.Scope, groupID *int64) (int64, error)
	Delete(ctx context.Context, projectID int64) error
	SetScope(ctx context.Context, projectID int64, actorID string, scope models.Scope, groupID *int64) error
	Transfer(ctx context.Context, projectID int64, newOwnerName string) error
	ListVisible(ctx context.Context, userID string) ([]models.Project, error)
	View(ctx context.Context, projectID int64, userID string) (*services.ProjectView, error)
	Track(ctx context.Context, projectID int64, itemID string, qty int64) error
	Untrack(ctx context.Context, projectID int64, itemID string) error
	IsOwner(ctx context.Context, projectID int64, userID string) (bool, error)
	IsVisible(ctx context.Context, projectID int64, userID string) (bool, error)
}

type Ledger interface {
	AddInventory(ctx context.Context, externalID string) (*models.Inventory, error)
	RemoveInventory(ctx context.Context, externalID string) error
	ResolveInventory(ctx context.Context, externalID string) (int64, error)
	Items(ctx context.Context, inventoryID int64) ([]models.StoredItem, error)
	Add(ctx context.Context, inventoryID int64, itemID string, qty int64, projectID *int64) (int64, error)
	Remove(ctx context.Context, inventoryID int64, itemID string, qty int64, projectID *int64) (int64, error)
	Transfer(ctx context.Context, itemID string, sourceID, targetID int64, qty int64, sourceProject, targetProject *int64) (int64, int64, error)
	Reserve(ctx context.Context, itemID string, inventoryID, targetProject int64, qty int64, sourceProject *int64) (int64, int64, error)
	Unreserve(ctx context.Context, itemID string, inventoryID, projectID int64, qty int64) (int64, int64, error)
	Delete(ctx context.Context, inventoryID int64, itemID string, projectID *int64) error
}
