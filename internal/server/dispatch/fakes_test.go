package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/services"
)

type fakeUsers struct{}

func (fakeUsers) Register(_ context.Context, name string) (*models.User, string, error) {
	if name == "Taken" {
		return nil, "", common.ErrDuplicateIdentity
	}
	return &models.User{ID: "id-" + name, DisplayName: name}, "k3ey", nil
}

func (fakeUsers) Resume(_ context.Context, name, key string) (*models.User, error) {
	if key != "good" {
		return nil, common.ErrInvalidCredentials
	}
	return &models.User{ID: "id-" + name, DisplayName: name}, nil
}

// recorder collects the mutating calls made by the router.
type recorder struct {
	calls []string
}

func (r *recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

type fakeGroups struct {
	*recorder
	owners map[int64]string
}

func (f fakeGroups) Create(_ context.Context, ownerID, name string) (int64, error) {
	f.record("group create %s %s", ownerID, name)
	return 7, nil
}

func (f fakeGroups) Delete(_ context.Context, id int64) error {
	f.record("group delete %d", id)
	return nil
}

func (f fakeGroups) AddMember(_ context.Context, id int64, actorID, name string) error {
	f.record("group add %d %s", id, name)
	return nil
}

func (f fakeGroups) RemoveMember(_ context.Context, id int64, name string) error {
	f.record("group remove %d %s", id, name)
	return nil
}

func (f fakeGroups) Leave(_ context.Context, id int64, userID string) error {
	if f.owners[id] == userID {
		return common.Errorf(common.ErrIllegalState, "the owner can't leave the group")
	}
	f.record("group leave %d %s", id, userID)
	return nil
}

func (f fakeGroups) Transfer(_ context.Context, id int64, actorID, name string) error {
	f.record("group transfer %d %s", id, name)
	return nil
}

func (f fakeGroups) Info(_ context.Context, id int64, viewerID string, withIDs bool) (*services.GroupInfo, error) {
	if _, ok := f.owners[id]; !ok {
		return nil, common.Errorf(common.ErrNotFound, "group not found")
	}
	return &services.GroupInfo{
		Name:      "builders",
		OwnerName: "Steve",
		Members:   []models.Member{{DisplayName: "Alex"}, {DisplayName: "Steve"}},
	}, nil
}

func (f fakeGroups) List(context.Context, string) ([]models.Group, error) {
	return []models.Group{{ID: 1, Name: "builders", OwnerName: "Steve"}}, nil
}

func (f fakeGroups) IsOwner(_ context.Context, id int64, userID string) (bool, error) {
	return f.owners[id] == userID, nil
}

type fakeProjects struct {
	*recorder
	owners  map[int64]string
	visible map[int64]bool
}

func (f fakeProjects) Create(_ context.Context, ownerID, name, desc string, scope models.Scope, groupID *int64) (int64, error) {
	f.record("project create %s %s %s", ownerID, name, scope)
	return 3, nil
}

func (f fakeProjects) Delete(_ context.Context, id int64) error {
	f.record("project delete %d", id)
	return nil
}

func (f fakeProjects) SetScope(_ context.Context, id int64, actorID string, scope models.Scope, groupID *int64) error {
	f.record("project scope %d %s", id, scope)
	return nil
}

func (f fakeProjects) Transfer(_ context.Context, id int64, name string) error {
	f.record("project transfer %d %s", id, name)
	return nil
}

func (f fakeProjects) ListVisible(context.Context, string) ([]models.Project, error) {
	return []models.Project{{ID: 3, Name: "castle", Scope: models.ScopePublic}}, nil
}

func (f fakeProjects) View(_ context.Context, id int64, userID string) (*services.ProjectView, error) {
	if !f.visible[id] {
		return nil, errProjectNotFound
	}
	return &services.ProjectView{
		Project:  models.Project{ID: id, Name: "castle", Description: "big", Scope: models.ScopePublic, OwnerID: "id-Steve"},
		Goals:    []models.Goal{{ProjectID: id, ItemID: "stone", Quantity: 64}},
		Reserved: []models.StoredItem{{StockKey: models.StockKey{InventoryID: 1, ItemID: "stone", ProjectID: &id}, Quantity: 10}},
	}, nil
}

func (f fakeProjects) Track(_ context.Context, id int64, item string, qty int64) error {
	f.record("project track %d %s %d", id, item, qty)
	return nil
}

func (f fakeProjects) Untrack(_ context.Context, id int64, item string) error {
	f.record("project untrack %d %s", id, item)
	return nil
}

func (f fakeProjects) IsOwner(_ context.Context, id int64, userID string) (bool, error) {
	return f.owners[id] == userID, nil
}

func (f fakeProjects) IsVisible(_ context.Context, id int64, _ string) (bool, error) {
	return f.visible[id], nil
}

// fakeLedger knows two inventories, "chest" (1) and "barrel" (2).
type fakeLedger struct {
	*recorder
}

var errBoom = errors.New("connection reset by peer")

func (f fakeLedger) AddInventory(_ context.Context, ext string) (*models.Inventory, error) {
	f.record("inventory add %s", ext)
	return &models.Inventory{ID: 9, ExternalID: ext}, nil
}

func (f fakeLedger) RemoveInventory(_ context.Context, ext string) error {
	f.record("inventory remove %s", ext)
	return nil
}

func (f fakeLedger) ResolveInventory(_ context.Context, ext string) (int64, error) {
	switch ext {
	case "chest":
		return 1, nil
	case "barrel":
		return 2, nil
	case "broken":
		return 0, errBoom
	case "cursed":
		return 666, nil
	}
	return 0, fmt.Errorf("inventory %w", common.ErrNotFound)
}

func (f fakeLedger) Items(_ context.Context, inv int64) ([]models.StoredItem, error) {
	if inv == 666 {
		panic("cursed inventory")
	}
	p := int64(3)
	return []models.StoredItem{
		{StockKey: models.StockKey{InventoryID: inv, ItemID: "stone"}, Quantity: 5},
		{StockKey: models.StockKey{InventoryID: inv, ItemID: "stone", ProjectID: &p}, Quantity: 2},
	}, nil
}

func (f fakeLedger) Add(_ context.Context, inv int64, item string, qty int64, project *int64) (int64, error) {
	f.record("add %d %s %d", inv, item, qty)
	return 10 + qty, nil
}

func (f fakeLedger) Remove(_ context.Context, inv int64, item string, qty int64, project *int64) (int64, error) {
	f.record("remove %d %s %d", inv, item, qty)
	return 0, nil
}

func (f fakeLedger) Transfer(_ context.Context, item string, src, dst, qty int64, sp, tp *int64) (int64, int64, error) {
	f.record("transfer %s %d %d %d", item, src, dst, qty)
	return 0, qty, nil
}

func (f fakeLedger) Reserve(_ context.Context, item string, inv, target, qty int64, source *int64) (int64, int64, error) {
	f.record("reserve %s %d %d %d", item, inv, target, qty)
	return 6, 4, nil
}

func (f fakeLedger) Unreserve(_ context.Context, item string, inv, project, qty int64) (int64, int64, error) {
	f.record("unreserve %s %d %d %d", item, inv, project, qty)
	return 1, 9, nil
}

func (f fakeLedger) Delete(_ context.Context, inv int64, item string, project *int64) error {
	f.record("delete %d %s", inv, item)
	return nil
}
