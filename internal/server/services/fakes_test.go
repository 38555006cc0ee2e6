package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/groups"
	"github.com/simplegameutils/sgu/internal/server/repositories/inventories"
	"github.com/simplegameutils/sgu/internal/server/repositories/items"
	"github.com/simplegameutils/sgu/internal/server/repositories/projects"
	"github.com/simplegameutils/sgu/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx queues n successful transactions.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func ptr(v int64) *int64 { return &v }

// --- in-memory store shared by all fake repositories ---

type bucketKey struct {
	inv     int64
	item    string
	project int64
	hasProj bool
}

func toBucketKey(k models.StockKey) bucketKey {
	b := bucketKey{inv: k.InventoryID, item: k.ItemID}
	if k.ProjectID != nil {
		b.project, b.hasProj = *k.ProjectID, true
	}
	return b
}

func (b bucketKey) stockKey() models.StockKey {
	k := models.StockKey{InventoryID: b.inv, ItemID: b.item}
	if b.hasProj {
		p := b.project
		k.ProjectID = &p
	}
	return k
}

type store struct {
	users       map[string]*models.User
	groups      map[int64]*models.Group
	members     map[int64]map[string]bool
	inventories map[string]int64
	stock       map[bucketKey]int64
	projects    map[int64]*models.Project
	goals       map[int64]map[string]int64

	nextID int64
	locked []models.StockKey
	// deleting holds projects locked FOR UPDATE; shared locks and new
	// buckets on them fail the way they do once the delete commits.
	deleting map[int64]bool
}

func newStore() *store {
	return &store{
		users:       map[string]*models.User{},
		groups:      map[int64]*models.Group{},
		members:     map[int64]map[string]bool{},
		inventories: map[string]int64{},
		stock:       map[bucketKey]int64{},
		projects:    map[int64]*models.Project{},
		goals:       map[int64]map[string]int64{},
		deleting:    map[int64]bool{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return (*fakeUsers)(m.s) }
func (m *fakeRepoManager) Groups(dbx.DBTX) groups.Repository               { return (*fakeGroups)(m.s) }
func (m *fakeRepoManager) Inventories(dbx.DBTX) inventories.Repository     { return (*fakeInventories)(m.s) }
func (m *fakeRepoManager) Items(dbx.DBTX) items.Repository                 { return (*fakeItems)(m.s) }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository           { return (*fakeProjects)(m.s) }

// --- users ---

type fakeUsers store

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, x := range f.users {
		if strings.EqualFold(x.DisplayName, u.DisplayName) || x.ExternalID == u.ExternalID || x.KeyDigest == u.KeyDigest {
			return common.ErrDuplicateIdentity
		}
	}
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range f.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.Errorf(common.ErrNotFound, "user not found")
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByKeyDigest(_ context.Context, d string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.KeyDigest == d })
}

func (f *fakeUsers) GetByDisplayName(_ context.Context, n string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.DisplayName, n) })
}

func (f *fakeUsers) GetByExternalID(_ context.Context, e string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ExternalID == e })
}

func (f *fakeUsers) UpdateDisplayName(_ context.Context, id, name string) error {
	u, ok := f.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.DisplayName = name
	return nil
}

// --- groups ---

type fakeGroups store

func (f *fakeGroups) Create(_ context.Context, name, ownerID string) (int64, error) {
	id := (*store)(f).id()
	f.groups[id] = &models.Group{ID: id, Name: name, OwnerID: ownerID}
	f.members[id] = map[string]bool{}
	return id, nil
}

func (f *fakeGroups) Get(_ context.Context, id int64) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, common.Errorf(common.ErrNotFound, "group not found")
	}
	c := *g
	if u, ok := f.users[g.OwnerID]; ok {
		c.OwnerName = u.DisplayName
	}
	return &c, nil
}

func (f *fakeGroups) Delete(_ context.Context, id int64) error {
	if _, ok := f.groups[id]; !ok {
		return common.ErrNotFound
	}
	for _, p := range f.projects {
		if p.GroupID != nil && *p.GroupID == id {
			panic("group deleted while projects still reference it")
		}
	}
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeGroups) SetOwner(_ context.Context, id int64, ownerID string) error {
	g, ok := f.groups[id]
	if !ok {
		return common.ErrNotFound
	}
	g.OwnerID = ownerID
	return nil
}

func (f *fakeGroups) AddMember(_ context.Context, groupID int64, userID string) error {
	m, ok := f.members[groupID]
	if !ok {
		return common.ErrNotFound
	}
	if m[userID] {
		return common.Errorf(common.ErrIllegalState, "user is already a member of this group")
	}
	m[userID] = true
	return nil
}

func (f *fakeGroups) RemoveMember(_ context.Context, groupID int64, userID string) error {
	if !f.members[groupID][userID] {
		return common.Errorf(common.ErrNotFound, "user is not a member of this group")
	}
	delete(f.members[groupID], userID)
	return nil
}

func (f *fakeGroups) IsMember(_ context.Context, groupID int64, userID string) (bool, error) {
	return f.members[groupID][userID], nil
}

func (f *fakeGroups) Members(_ context.Context, groupID int64) ([]models.Member, error) {
	var out []models.Member
	for id := range f.members[groupID] {
		out = append(out, models.Member{UserID: id, DisplayName: f.users[id].DisplayName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (f *fakeGroups) ListForMember(_ context.Context, userID string) ([]models.Group, error) {
	var out []models.Group
	for id, m := range f.members {
		if m[userID] {
			out = append(out, *f.groups[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- inventories ---

type fakeInventories store

func (f *fakeInventories) Create(_ context.Context, ext string) (*models.Inventory, error) {
	if _, ok := f.inventories[ext]; ok {
		return nil, common.Errorf(common.ErrIllegalState, "inventory is already tracked")
	}
	id := (*store)(f).id()
	f.inventories[ext] = id
	return &models.Inventory{ID: id, ExternalID: ext}, nil
}

func (f *fakeInventories) GetByExternalID(_ context.Context, ext string) (*models.Inventory, error) {
	id, ok := f.inventories[ext]
	if !ok {
		return nil, common.Errorf(common.ErrNotFound, "inventory not found")
	}
	return &models.Inventory{ID: id, ExternalID: ext}, nil
}

func (f *fakeInventories) Delete(_ context.Context, ext string) error {
	id, ok := f.inventories[ext]
	if !ok {
		return common.Errorf(common.ErrNotFound, "inventory not found")
	}
	delete(f.inventories, ext)
	for k := range f.stock {
		if k.inv == id {
			delete(f.stock, k)
		}
	}
	return nil
}

// --- items ---

type fakeItems store

func (f *fakeItems) Ensure(_ context.Context, k models.StockKey) error {
	if k.ProjectID != nil {
		if _, ok := f.projects[*k.ProjectID]; !ok || f.deleting[*k.ProjectID] {
			return common.Errorf(common.ErrNotFound, "project not found")
		}
	}
	bk := toBucketKey(k)
	if _, ok := f.stock[bk]; !ok {
		f.stock[bk] = 0
	}
	return nil
}

func (f *fakeItems) Lock(_ context.Context, k models.StockKey) (int64, error) {
	q, ok := f.stock[toBucketKey(k)]
	if !ok {
		return 0, common.Errorf(common.ErrNotFound, "item not found")
	}
	f.locked = append(f.locked, k)
	return q, nil
}

func (f *fakeItems) Set(_ context.Context, k models.StockKey, qty int64) error {
	bk := toBucketKey(k)
	if _, ok := f.stock[bk]; !ok {
		return common.ErrNotFound
	}
	if qty < 0 {
		panic("negative quantity written")
	}
	f.stock[bk] = qty
	return nil
}

func (f *fakeItems) Delete(_ context.Context, k models.StockKey) error {
	bk := toBucketKey(k)
	if _, ok := f.stock[bk]; !ok {
		return common.Errorf(common.ErrNotFound, "item not found")
	}
	delete(f.stock, bk)
	return nil
}

func (f *fakeItems) list(match func(bucketKey) bool) []models.StoredItem {
	var out []models.StoredItem
	for k, q := range f.stock {
		if match(k) {
			out = append(out, models.StoredItem{StockKey: k.stockKey(), Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j].StockKey) })
	return out
}

func (f *fakeItems) ListByInventory(_ context.Context, inv int64) ([]models.StoredItem, error) {
	return f.list(func(k bucketKey) bool { return k.inv == inv }), nil
}

func (f *fakeItems) ListByProject(_ context.Context, p int64) ([]models.StoredItem, error) {
	return f.list(func(k bucketKey) bool { return k.hasProj && k.project == p }), nil
}

// --- projects ---

type fakeProjects store

func (f *fakeProjects) Create(_ context.Context, p *models.Project) (int64, error) {
	id := (*store)(f).id()
	c := *p
	c.ID = id
	f.projects[id] = &c
	return id, nil
}

func (f *fakeProjects) Get(_ context.Context, id int64) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, common.Errorf(common.ErrNotFound, "project not found")
	}
	c := *p
	return &c, nil
}

func (f *fakeProjects) Lock(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return common.Errorf(common.ErrNotFound, "project not found")
	}
	f.deleting[id] = true
	return nil
}

func (f *fakeProjects) LockShared(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok || f.deleting[id] {
		return common.Errorf(common.ErrNotFound, "project not found")
	}
	return nil
}

// Delete mirrors the ON DELETE CASCADE of stored_items and project_goals.
func (f *fakeProjects) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return common.Errorf(common.ErrNotFound, "project not found")
	}
	delete(f.projects, id)
	delete(f.goals, id)
	delete(f.deleting, id)
	for k := range f.stock {
		if k.hasProj && k.project == id {
			delete(f.stock, k)
		}
	}
	return nil
}

func (f *fakeProjects) SetOwner(_ context.Context, id int64, ownerID string) error {
	p, ok := f.projects[id]
	if !ok {
		return common.ErrNotFound
	}
	p.OwnerID = ownerID
	return nil
}

func (f *fakeProjects) SetScope(_ context.Context, id int64, scope models.Scope, groupID *int64) error {
	p, ok := f.projects[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Scope, p.GroupID = scope, groupID
	return nil
}

func (f *fakeProjects) DetachGroup(_ context.Context, groupID int64) (int64, error) {
	var n int64
	for _, p := range f.projects {
		if p.GroupID != nil && *p.GroupID == groupID {
			p.Scope, p.GroupID = models.ScopePrivate, nil
			n++
		}
	}
	return n, nil
}

func (f *fakeProjects) visible(p *models.Project, userID string) bool {
	switch {
	case p.Scope == models.ScopePublic, p.OwnerID == userID:
		return true
	case p.Scope == models.ScopeGroup && p.GroupID != nil:
		return f.members[*p.GroupID][userID]
	}
	return false
}

func (f *fakeProjects) ListVisible(_ context.Context, userID string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if f.visible(p, userID) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProjects) IsVisible(_ context.Context, id int64, userID string) (bool, error) {
	p, ok := f.projects[id]
	return ok && f.visible(p, userID), nil
}

func (f *fakeProjects) Goals(_ context.Context, projectID int64) ([]models.Goal, error) {
	var out []models.Goal
	for item, q := range f.goals[projectID] {
		out = append(out, models.Goal{ProjectID: projectID, ItemID: item, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (f *fakeProjects) UpsertGoal(_ context.Context, g models.Goal) error {
	if _, ok := f.projects[g.ProjectID]; !ok {
		return common.Errorf(common.ErrNotFound, "project not found")
	}
	if f.goals[g.ProjectID] == nil {
		f.goals[g.ProjectID] = map[string]int64{}
	}
	f.goals[g.ProjectID][g.ItemID] = g.Quantity
	return nil
}

func (f *fakeProjects) DeleteGoal(_ context.Context, projectID int64, itemID string) error {
	if _, ok := f.goals[projectID][itemID]; !ok {
		return common.Errorf(common.ErrNotFound, "item is not tracked by this project")
	}
	delete(f.goals[projectID], itemID)
	return nil
}
