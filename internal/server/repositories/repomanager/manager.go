package repomanager

import (
	"context"
	"database/sql"

	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/repositories/groups"
	"github.com/simplegameutils/sgu/internal/server/repositories/inventories"
	"github.com/simplegameutils/sgu/internal/server/repositories/items"
	"github.com/simplegameutils/sgu/internal/server/repositories/projects"
	"github.com/simplegameutils/sgu/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Groups(db dbx.DBTX) groups.Repository
	Inventories(db dbx.DBTX) inventories.Repository
	Items(db dbx.DBTX) items.Repository
	Projects(db dbx.DBTX) projects.Repository
}
