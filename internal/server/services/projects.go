package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/repomanager"
)

// ProjectView is a single project with its goals and the stock reserved for it.
type ProjectView struct {
	models.Project
	Goals    []models.Goal
	Reserved []models.StoredItem
}

type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ledger      *Ledger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, ledger *Ledger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, ledger: ledger}
}

// checkScope validates a scope/group pair for actorID and returns the group id
// to store: nil unless the scope is GROUP.
func (s *ProjectService) checkScope(ctx context.Context, actorID string, scope models.Scope, groupID *int64) (*int64, error) {
	if !scope.Valid() {
		return nil, common.Errorf(common.ErrValidation, "scope must be one of PUBLIC, PRIVATE, GROUP")
	}
	if scope != models.ScopeGroup {
		return nil, nil
	}
	if groupID == nil {
		return nil, common.Errorf(common.ErrIllegalState, "group_id is required for GROUP scope")
	}
	ok, err := s.repomanager.Groups(s.db).IsMember(ctx, *groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Errorf(common.ErrPermissionDenied, "you are not a member of group %d", *groupID)
	}
	return groupID, nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID, name, description string, scope models.Scope, groupID *int64) (int64, error) {
	groupID, err := s.checkScope(ctx, ownerID, scope, groupID)
	if err != nil {
		return 0, err
	}
	return s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		Name:        name,
		Description: description,
		Scope:       scope,
		OwnerID:     ownerID,
		GroupID:     groupID,
	})
}

// Delete releases every reserved bucket back to unattributed stock, then
// deletes the project and its goals, all in one transaction.
func (s *ProjectService) Delete(ctx context.Context, projectID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.ledger.ReleaseProject(ctx, tx, projectID); err != nil {
			return err
		}
		return s.repomanager.Projects(tx).Delete(ctx, projectID)
	})
}

func (s *ProjectService) SetScope(ctx context.Context, projectID int64, actorID string, scope models.Scope, groupID *int64) error {
	groupID, err := s.checkScope(ctx, actorID, scope, groupID)
	if err != nil {
		return err
	}
	return s.repomanager.Projects(s.db).SetScope(ctx, projectID, scope, groupID)
}

func (s *ProjectService) Transfer(ctx context.Context, projectID int64, newOwnerName string) error {
	next, err := s.repomanager.Users(s.db).GetByDisplayName(ctx, newOwnerName)
	if err != nil {
		return err
	}
	return s.repomanager.Projects(s.db).SetOwner(ctx, projectID, next.ID)
}

// ListVisible returns PUBLIC, owned and member-group projects sorted by id.
func (s *ProjectService) ListVisible(ctx context.Context, userID string) ([]models.Project, error) {
	return s.repomanager.Projects(s.db).ListVisible(ctx, userID)
}

// View returns one project if the user can see it. Invisible projects are
// reported as not found.
func (s *ProjectService) View(ctx context.Context, projectID int64, userID string) (*ProjectView, error) {
	repo := s.repomanager.Projects(s.db)

	ok, err := repo.IsVisible(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Errorf(common.ErrNotFound, "project not found")
	}

	p, err := repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	goals, err := repo.Goals(ctx, projectID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repomanager.Items(s.db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: *p, Goals: goals, Reserved: reserved}, nil
}

// Track sets the collection target for an item.
func (s *ProjectService) Track(ctx context.Context, projectID int64, itemID string, qty int64) error {
	if qty < 0 {
		return common.Errorf(common.ErrValidation, "item_qty must not be negative")
	}
	return s.repomanager.Projects(s.db).UpsertGoal(ctx, models.Goal{ProjectID: projectID, ItemID: itemID, Quantity: qty})
}

func (s *ProjectService) Untrack(ctx context.Context, projectID int64, itemID string) error {
	return s.repomanager.Projects(s.db).DeleteGoal(ctx, projectID, itemID)
}

// IsOwner reports whether userID owns the project. A missing project is not owned.
func (s *ProjectService) IsOwner(ctx context.Context, projectID int64, userID string) (bool, error) {
	p, err := s.repomanager.Projects(s.db).Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.OwnerID == userID, nil
}

func (s *ProjectService) IsVisible(ctx context.Context, projectID int64, userID string) (bool, error) {
	return s.repomanager.Projects(s.db).IsVisible(ctx, projectID, userID)
}
