package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/items"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	svc    *ProjectService
	ledger *Ledger
	s      *store
	mock   sqlmock.Sqlmock
	group  int64
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	s := newStore()
	seedUsers(s, "Steve", "Alex", "Notch")
	rm := &fakeRepoManager{s: s}

	g, err := (*fakeGroups)(s).Create(context.Background(), "builders", "id-Steve")
	require.NoError(t, err)
	s.members[g]["id-Steve"] = true
	s.members[g]["id-Alex"] = true

	ledger := NewLedger(db, rm)
	return &projectFixture{svc: NewProjectService(db, rm, ledger), ledger: ledger, s: s, mock: mock, group: g}
}

func TestProjectCreate(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, "id-Steve", "castle", "walls first", models.ScopePrivate, ptr(f.group))
	require.NoError(t, err)
	p := f.s.projects[id]
	assert.Equal(t, models.ScopePrivate, p.Scope)
	assert.Nil(t, p.GroupID, "group id is only kept for GROUP scope")

	id, err = f.svc.Create(ctx, "id-Alex", "farm", "", models.ScopeGroup, ptr(f.group))
	require.NoError(t, err)
	assert.Equal(t, f.group, *f.s.projects[id].GroupID)

	_, err = f.svc.Create(ctx, "id-Steve", "x", "", models.ScopeGroup, nil)
	assert.ErrorIs(t, err, common.ErrIllegalState)

	_, err = f.svc.Create(ctx, "id-Notch", "x", "", models.ScopeGroup, ptr(f.group))
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = f.svc.Create(ctx, "id-Steve", "x", "", models.Scope("SECRET"), nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestProjectVisibility(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	pub, err := f.svc.Create(ctx, "id-Notch", "pub", "", models.ScopePublic, nil)
	require.NoError(t, err)
	priv, err := f.svc.Create(ctx, "id-Notch", "priv", "", models.ScopePrivate, nil)
	require.NoError(t, err)
	grp, err := f.svc.Create(ctx, "id-Steve", "grp", "", models.ScopeGroup, ptr(f.group))
	require.NoError(t, err)
	mine, err := f.svc.Create(ctx, "id-Alex", "mine", "", models.ScopePrivate, nil)
	require.NoError(t, err)

	list, err := f.svc.ListVisible(ctx, "id-Alex")
	require.NoError(t, err)
	var ids []int64
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{pub, grp, mine}, ids)

	_, err = f.svc.View(ctx, priv, "id-Alex")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ok, err := f.svc.IsVisible(ctx, grp, "id-Notch")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectView_IncludesGoalsAndReservedStock(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, "id-Steve", "castle", "", models.ScopePublic, nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Track(ctx, id, "minecraft:stone", 64))

	inv, err := f.ledger.AddInventory(ctx, "chest")
	require.NoError(t, err)
	expectTx(f.mock, 2)
	_, err = f.ledger.Add(ctx, inv.ID, "minecraft:stone", 10, nil)
	require.NoError(t, err)
	_, _, err = f.ledger.Reserve(ctx, "minecraft:stone", inv.ID, id, 6, nil)
	require.NoError(t, err)

	view, err := f.svc.View(ctx, id, "id-Notch")
	require.NoError(t, err)
	assert.Equal(t, "castle", view.Name)
	assert.Equal(t, []models.Goal{{ProjectID: id, ItemID: "minecraft:stone", Quantity: 64}}, view.Goals)
	require.Len(t, view.Reserved, 1)
	assert.Equal(t, int64(6), view.Reserved[0].Quantity)
}

func TestProjectDelete_ReturnsStockToUnattributed(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, "id-Steve", "castle", "", models.ScopePrivate, nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Track(ctx, id, "minecraft:stone", 64))

	a, err := f.ledger.AddInventory(ctx, "a")
	require.NoError(t, err)
	b, err := f.ledger.AddInventory(ctx, "b")
	require.NoError(t, err)

	expectTx(f.mock, 4)
	_, err = f.ledger.Add(ctx, a.ID, "minecraft:stone", 10, nil)
	require.NoError(t, err)
	_, _, err = f.ledger.Reserve(ctx, "minecraft:stone", a.ID, id, 4, nil)
	require.NoError(t, err)
	_, err = f.ledger.Add(ctx, b.ID, "minecraft:dirt", 3, ptr(id))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, id))

	assert.NotContains(t, f.s.projects, id)
	assert.NotContains(t, f.s.goals, id)

	rowsA, err := f.ledger.Items(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.StoredItem{{StockKey: models.StockKey{InventoryID: a.ID, ItemID: "minecraft:stone"}, Quantity: 10}}, rowsA)

	rowsB, err := f.ledger.Items(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.StoredItem{{StockKey: models.StockKey{InventoryID: b.ID, ItemID: "minecraft:dirt"}, Quantity: 3}}, rowsB)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestProjectDelete_MissingProjectRollsBack(t *testing.T) {
	f := newProjectFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	assert.ErrorIs(t, f.svc.Delete(context.Background(), 404), common.ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// racingRepoManager runs afterList right after a project's buckets are
// listed, standing in for a write that lands between the listing and the
// row locks.
type racingRepoManager struct {
	*fakeRepoManager
	afterList func()
}

func (m *racingRepoManager) Items(tx dbx.DBTX) items.Repository {
	return racingItems{Repository: m.fakeRepoManager.Items(tx), afterList: m.afterList}
}

type racingItems struct {
	items.Repository
	afterList func()
}

func (r racingItems) ListByProject(ctx context.Context, projectID int64) ([]models.StoredItem, error) {
	rows, err := r.Repository.ListByProject(ctx, projectID)
	if r.afterList != nil {
		r.afterList()
	}
	return rows, err
}

func TestProjectDelete_MovesQuantityReadUnderLock(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newStore()
	s.projects[1] = &models.Project{ID: 1, OwnerID: "id-Steve"}
	rm := &racingRepoManager{fakeRepoManager: &fakeRepoManager{s: s}}
	ledger := NewLedger(db, rm)
	svc := NewProjectService(db, rm, ledger)
	ctx := context.Background()

	inv, err := ledger.AddInventory(ctx, "a")
	require.NoError(t, err)
	expectTx(mock, 3)
	_, err = ledger.Add(ctx, inv.ID, "minecraft:stone", 10, nil)
	require.NoError(t, err)
	_, _, err = ledger.Reserve(ctx, "minecraft:stone", inv.ID, 1, 4, nil)
	require.NoError(t, err)

	reserved := models.StockKey{InventoryID: inv.ID, ItemID: "minecraft:stone", ProjectID: ptr(1)}
	rm.afterList = func() {
		assert.True(t, s.deleting[1], "project must be locked before its buckets are listed")
		// someone took 3 out of the reservation after the listing
		s.stock[toBucketKey(reserved)] = 1
	}

	require.NoError(t, svc.Delete(ctx, 1))

	rows, err := ledger.Items(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.StoredItem{{StockKey: models.StockKey{InventoryID: inv.ID, ItemID: "minecraft:stone"}, Quantity: 7}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDelete_RefusesBucketsForLockedProject(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newStore()
	s.projects[1] = &models.Project{ID: 1}
	l := NewLedger(db, &fakeRepoManager{s: s})
	ctx := context.Background()
	inv := mustInventory(t, l, "a")

	expectTx(mock, 1)
	_, err := l.Add(ctx, inv, "minecraft:dirt", 3, nil)
	require.NoError(t, err)

	require.NoError(t, (*fakeProjects)(s).Lock(ctx, 1))
	s.locked = nil

	ops := map[string]func() error{
		"add": func() error {
			_, err := l.Add(ctx, inv, "minecraft:dirt", 3, ptr(1))
			return err
		},
		"reserve": func() error {
			_, _, err := l.Reserve(ctx, "minecraft:dirt", inv, 1, 2, nil)
			return err
		},
		"transfer": func() error {
			_, _, err := l.Transfer(ctx, "minecraft:dirt", inv, inv, 1, nil, ptr(1))
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectRollback()
			assert.ErrorIs(t, op(), common.ErrNotFound)
		})
	}

	assert.Equal(t, map[bucketKey]int64{{inv: inv, item: "minecraft:dirt"}: 3}, s.stock)
	assert.Empty(t, s.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectScopeAndTransfer(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, "id-Steve", "castle", "", models.ScopePrivate, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetScope(ctx, id, "id-Steve", models.ScopeGroup, ptr(f.group)))
	assert.Equal(t, models.ScopeGroup, f.s.projects[id].Scope)

	assert.ErrorIs(t, f.svc.SetScope(ctx, id, "id-Steve", models.ScopeGroup, nil), common.ErrIllegalState)

	require.NoError(t, f.svc.SetScope(ctx, id, "id-Steve", models.ScopePublic, ptr(f.group)))
	assert.Nil(t, f.s.projects[id].GroupID)

	require.NoError(t, f.svc.Transfer(ctx, id, "notch"))
	owner, err := f.svc.IsOwner(ctx, id, "id-Notch")
	require.NoError(t, err)
	assert.True(t, owner)

	assert.ErrorIs(t, f.svc.Transfer(ctx, id, "Herobrine"), common.ErrNotFound)

	owner, err = f.svc.IsOwner(ctx, 404, "id-Notch")
	require.NoError(t, err)
	assert.False(t, owner)
}

func TestProjectTrackUntrack(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, "id-Steve", "castle", "", models.ScopePrivate, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Track(ctx, id, "minecraft:stone", 10))
	require.NoError(t, f.svc.Track(ctx, id, "minecraft:stone", 20))
	assert.Equal(t, int64(20), f.s.goals[id]["minecraft:stone"])

	assert.ErrorIs(t, f.svc.Track(ctx, id, "minecraft:stone", -1), common.ErrValidation)

	require.NoError(t, f.svc.Untrack(ctx, id, "minecraft:stone"))
	assert.ErrorIs(t, f.svc.Untrack(ctx, id, "minecraft:stone"), common.ErrNotFound)
}
