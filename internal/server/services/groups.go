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

// GroupInfo describes a group for display. IDs are only filled when asked for.
type GroupInfo struct {
	ID        int64
	Name      string
	OwnerID   string
	OwnerName string
	Members   []models.Member
}

type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewGroupService(db *sql.DB, m repomanager.RepositoryManager) *GroupService {
	return &GroupService{db: db, repomanager: m}
}

// Create makes a group with the owner as its only member.
func (s *GroupService) Create(ctx context.Context, ownerID, name string) (int64, error) {
	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		repo := s.repomanager.Groups(tx)
		id, err := repo.Create(ctx, name, ownerID)
		if err != nil {
			return 0, err
		}
		return id, repo.AddMember(ctx, id, ownerID)
	})
}

// Delete removes the group. Projects scoped to it become private to their
// owners in the same transaction.
func (s *GroupService) Delete(ctx context.Context, groupID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Projects(tx).DetachGroup(ctx, groupID); err != nil {
			return err
		}
		return s.repomanager.Groups(tx).Delete(ctx, groupID)
	})
}

func (s *GroupService) AddMember(ctx context.Context, groupID int64, actorID, memberName string) error {
	member, err := s.repomanager.Users(s.db).GetByDisplayName(ctx, memberName)
	if err != nil {
		return err
	}
	if member.ID == actorID {
		return common.Errorf(common.ErrIllegalState, "you are already a member of this group")
	}
	return s.repomanager.Groups(s.db).AddMember(ctx, groupID, member.ID)
}

// RemoveMember removes the named member. The owner cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, groupID int64, memberName string) error {
	member, err := s.repomanager.Users(s.db).GetByDisplayName(ctx, memberName)
	if err != nil {
		return err
	}
	repo := s.repomanager.Groups(s.db)
	g, err := repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == member.ID {
		return common.Errorf(common.ErrIllegalState, "the group owner cannot be removed")
	}
	return repo.RemoveMember(ctx, groupID, member.ID)
}

// Leave removes the acting user from the group. Owners must transfer first.
func (s *GroupService) Leave(ctx context.Context, groupID int64, userID string) error {
	repo := s.repomanager.Groups(s.db)
	g, err := repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return common.Errorf(common.ErrIllegalState, "the group owner cannot leave; transfer ownership first")
	}
	return repo.RemoveMember(ctx, groupID, userID)
}

// Transfer hands ownership to an existing member.
func (s *GroupService) Transfer(ctx context.Context, groupID int64, actorID, newOwnerName string) error {
	next, err := s.repomanager.Users(s.db).GetByDisplayName(ctx, newOwnerName)
	if err != nil {
		return err
	}
	if next.ID == actorID {
		return common.Errorf(common.ErrIllegalState, "you already own this group")
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)
		ok, err := repo.IsMember(ctx, groupID, next.ID)
		if err != nil {
			return err
		}
		if !ok {
			return common.Errorf(common.ErrIllegalState, "the new owner must be a member of the group")
		}
		return repo.SetOwner(ctx, groupID, next.ID)
	})
}

// Info returns the group with its members. The viewer must be a member.
// withIDs controls whether internal user ids are included.
func (s *GroupService) Info(ctx context.Context, groupID int64, viewerID string, withIDs bool) (*GroupInfo, error) {
	repo := s.repomanager.Groups(s.db)
	ok, err := repo.IsMember(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Errorf(common.ErrNotFound, "group not found")
	}

	g, err := repo.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := repo.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}

	info := &GroupInfo{Name: g.Name, OwnerName: g.OwnerName, Members: members}
	if withIDs {
		info.ID, info.OwnerID = g.ID, g.OwnerID
	} else {
		for i := range info.Members {
			info.Members[i].UserID = ""
		}
	}
	return info, nil
}

// List returns the groups the user is a member of.
func (s *GroupService) List(ctx context.Context, userID string) ([]models.Group, error) {
	return s.repomanager.Groups(s.db).ListForMember(ctx, userID)
}

// IsOwner reports whether userID owns the group. A missing group is not owned.
func (s *GroupService) IsOwner(ctx context.Context, groupID int64, userID string) (bool, error) {
	g, err := s.repomanager.Groups(s.db).Get(ctx, groupID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.OwnerID == userID, nil
}
