// Package services contains server-side business logic: the handshake
// backing in UserService, groups, projects and the inventory Ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/server/auth"
	"github.com/simplegameutils/sgu/internal/server/identity"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/repomanager"
)

// UserService registers new accounts and resumes existing ones.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    identity.Resolver
	digester    *auth.Digester
	generateKey func(externalID string) (string, error)
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, resolver identity.Resolver, digester *auth.Digester) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		resolver:    resolver,
		digester:    digester,
		generateKey: auth.GenerateKey,
	}
}

// Register creates an account for displayName and returns it with the freshly
// generated access key. The key is not kept anywhere; only its digest is.
func (s *UserService) Register(ctx context.Context, displayName string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByDisplayName(ctx, displayName); err == nil {
		return nil, "", common.ErrDuplicateIdentity
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", err
	}

	externalID, err := s.resolver.Resolve(ctx, displayName)
	if err != nil {
		return nil, "", err
	}

	if _, err := repo.GetByExternalID(ctx, externalID); err == nil {
		return nil, "", common.ErrDuplicateIdentity
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", err
	}

	key, err := s.generateKey(externalID)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		ExternalID:  externalID,
		KeyDigest:   s.digester.Digest(key),
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, "", err
	}
	return user, key, nil
}

// Resume authenticates a returning user by key. A display name that no longer
// matches is accepted only when it resolves to the stored external identity,
// in which case the stored name is updated.
func (s *UserService) Resume(ctx context.Context, displayName, key string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByKeyDigest(ctx, s.digester.Digest(key))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if strings.EqualFold(user.DisplayName, displayName) {
		return user, nil
	}

	externalID, err := identity.ResolveFresh(ctx, s.resolver, displayName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if externalID != user.ExternalID {
		return nil, common.ErrInvalidCredentials
	}

	if err := repo.UpdateDisplayName(ctx, user.ID, displayName); err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	return user, nil
}
