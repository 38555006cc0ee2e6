package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/simplegameutils/sgu/internal/common"
	"github.com/simplegameutils/sgu/internal/dbx"
	"github.com/simplegameutils/sgu/internal/server/metrics"
	"github.com/simplegameutils/sgu/internal/server/models"
	"github.com/simplegameutils/sgu/internal/server/repositories/items"
	"github.com/simplegameutils/sgu/internal/server/repositories/repomanager"
)

var (
	errNonPositiveQty = common.Errorf(common.ErrValidation, "item_qty must be positive")
	errQtyOverflow    = common.Errorf(common.ErrValidation, "item_qty would overflow the stored quantity")
)

// Ledger keeps stored item quantities. Every mutation runs in one transaction
// that first locks the referenced project rows in id order and then the
// touched buckets in StockKey order, so concurrent transfers in opposite
// directions cannot deadlock and quantities never go negative.
type Ledger struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewLedger(db *sql.DB, m repomanager.RepositoryManager) *Ledger {
	return &Ledger{db: db, repomanager: m}
}

// AddInventory starts tracking an external inventory id.
func (l *Ledger) AddInventory(ctx context.Context, externalID string) (*models.Inventory, error) {
	return l.repomanager.Inventories(l.db).Create(ctx, externalID)
}

// RemoveInventory stops tracking the inventory and drops its stored items.
func (l *Ledger) RemoveInventory(ctx context.Context, externalID string) error {
	return l.repomanager.Inventories(l.db).Delete(ctx, externalID)
}

func (l *Ledger) ResolveInventory(ctx context.Context, externalID string) (int64, error) {
	inv, err := l.repomanager.Inventories(l.db).GetByExternalID(ctx, externalID)
	if err != nil {
		return 0, err
	}
	return inv.ID, nil
}

// Items lists every bucket of the inventory, unattributed rows first per item.
func (l *Ledger) Items(ctx context.Context, inventoryID int64) ([]models.StoredItem, error) {
	return l.repomanager.Items(l.db).ListByInventory(ctx, inventoryID)
}

// Add increases the bucket by qty and returns the new quantity.
func (l *Ledger) Add(ctx context.Context, inventoryID int64, itemID string, qty int64, projectID *int64) (int64, error) {
	if qty <= 0 {
		return 0, errNonPositiveQty
	}
	key := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: projectID}

	out, err := dbx.WithTxResult(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		if err := l.lockProjects(ctx, tx, key); err != nil {
			return 0, err
		}
		repo := l.repomanager.Items(tx)
		b := &bucket{key: key, create: true}
		if err := lockBuckets(ctx, repo, b); err != nil {
			return 0, err
		}
		total, err := addQty(b.qty, qty)
		if err != nil {
			return 0, err
		}
		return total, repo.Set(ctx, key, total)
	})
	if err != nil {
		return 0, err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("add").Inc()
	return out, nil
}

// Remove decreases the bucket by qty, flooring at zero. Removing from a
// bucket that does not exist yields zero and writes nothing.
func (l *Ledger) Remove(ctx context.Context, inventoryID int64, itemID string, qty int64, projectID *int64) (int64, error) {
	if qty <= 0 {
		return 0, errNonPositiveQty
	}
	key := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: projectID}

	out, err := dbx.WithTxResult(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		if err := l.lockProjects(ctx, tx, key); err != nil {
			return 0, err
		}
		repo := l.repomanager.Items(tx)
		b := &bucket{key: key}
		if err := lockBuckets(ctx, repo, b); err != nil {
			return 0, err
		}
		if !b.exists {
			return 0, nil
		}
		left := floorSub(b.qty, qty)
		return left, repo.Set(ctx, key, left)
	})
	if err != nil {
		return 0, err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("remove").Inc()
	return out, nil
}

// Transfer removes qty from the source bucket and adds qty to the target
// bucket atomically. It returns the source remainder and the target total.
// Like Remove, the source side floors at zero; the target always gains qty.
func (l *Ledger) Transfer(ctx context.Context, itemID string, sourceID, targetID int64, qty int64, sourceProject, targetProject *int64) (int64, int64, error) {
	src := models.StockKey{InventoryID: sourceID, ItemID: itemID, ProjectID: sourceProject}
	dst := models.StockKey{InventoryID: targetID, ItemID: itemID, ProjectID: targetProject}

	left, total, err := l.move(ctx, src, dst, qty)
	if err != nil {
		return 0, 0, err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("transfer").Inc()
	return left, total, nil
}

// Reserve moves qty of an item within one inventory from sourceProject
// (nil for unattributed stock) to targetProject.
func (l *Ledger) Reserve(ctx context.Context, itemID string, inventoryID, targetProject int64, qty int64, sourceProject *int64) (int64, int64, error) {
	src := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: sourceProject}
	dst := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: &targetProject}

	left, total, err := l.move(ctx, src, dst, qty)
	if err != nil {
		return 0, 0, err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("reserve").Inc()
	return left, total, nil
}

// Unreserve moves qty from the project bucket back to unattributed stock and
// returns what remains in the project and the new unattributed total.
func (l *Ledger) Unreserve(ctx context.Context, itemID string, inventoryID, projectID int64, qty int64) (int64, int64, error) {
	src := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: &projectID}
	dst := models.StockKey{InventoryID: inventoryID, ItemID: itemID}

	left, total, err := l.move(ctx, src, dst, qty)
	if err != nil {
		return 0, 0, err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("unreserve").Inc()
	return left, total, nil
}

// Delete removes exactly one bucket. A nil project addresses only the
// unattributed row; project rows of the same item are kept.
func (l *Ledger) Delete(ctx context.Context, inventoryID int64, itemID string, projectID *int64) error {
	key := models.StockKey{InventoryID: inventoryID, ItemID: itemID, ProjectID: projectID}
	if err := l.repomanager.Items(l.db).Delete(ctx, key); err != nil {
		return err
	}
	metrics.LedgerOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// ReleaseProject returns every bucket attributed to the project to the
// unattributed bucket of the same inventory. It runs on the caller's
// transaction so the release and whatever follows commit together.
//
// The project row is locked FOR UPDATE first, so no bucket can be created for
// it afterwards and the listing is complete. Quantities are taken from the
// locked rows, not from the listing.
func (l *Ledger) ReleaseProject(ctx context.Context, tx dbx.DBTX, projectID int64) error {
	if err := l.repomanager.Projects(tx).Lock(ctx, projectID); err != nil {
		return err
	}
	repo := l.repomanager.Items(tx)
	rows, err := repo.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		from := &bucket{key: row.StockKey}
		to := &bucket{key: models.StockKey{InventoryID: row.InventoryID, ItemID: row.ItemID}, create: true}
		if err := lockBuckets(ctx, repo, from, to); err != nil {
			return fmt.Errorf("release %s: %w", row.ItemID, err)
		}
		if !from.exists || from.qty == 0 {
			continue
		}
		total, err := addQty(to.qty, from.qty)
		if err != nil {
			return fmt.Errorf("release %s: %w", row.ItemID, err)
		}
		if err := repo.Set(ctx, from.key, 0); err != nil {
			return err
		}
		if err := repo.Set(ctx, to.key, total); err != nil {
			return err
		}
		metrics.LedgerOperationsTotal.WithLabelValues("unreserve").Inc()
	}
	return nil
}

func (l *Ledger) move(ctx context.Context, src, dst models.StockKey, qty int64) (int64, int64, error) {
	if qty <= 0 {
		return 0, 0, errNonPositiveQty
	}
	type result struct{ left, total int64 }

	r, err := dbx.WithTxResult(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) (result, error) {
		if err := l.lockProjects(ctx, tx, src, dst); err != nil {
			return result{}, err
		}
		left, total, err := moveIn(ctx, l.repomanager.Items(tx), src, dst, qty)
		return result{left, total}, err
	})
	if err != nil {
		return 0, 0, err
	}
	return r.left, r.total, nil
}

// moveIn applies remove(src) then add(dst) on an open transaction.
func moveIn(ctx context.Context, repo items.Repository, src, dst models.StockKey, qty int64) (int64, int64, error) {
	if src.SameBucket(dst) {
		b := &bucket{key: dst, create: true}
		if err := lockBuckets(ctx, repo, b); err != nil {
			return 0, 0, err
		}
		total, err := addQty(floorSub(b.qty, qty), qty)
		if err != nil {
			return 0, 0, err
		}
		return total, total, repo.Set(ctx, dst, total)
	}

	from := &bucket{key: src}
	to := &bucket{key: dst, create: true}
	if err := lockBuckets(ctx, repo, from, to); err != nil {
		return 0, 0, err
	}

	left := floorSub(from.qty, qty)
	total, err := addQty(to.qty, qty)
	if err != nil {
		return 0, 0, err
	}
	if from.exists {
		if err := repo.Set(ctx, src, left); err != nil {
			return 0, 0, err
		}
	}
	if err := repo.Set(ctx, dst, total); err != nil {
		return 0, 0, err
	}
	return left, total, nil
}

// lockProjects takes a shared lock on every project the keys reference, in id
// order. It keeps a concurrent project delete from missing a bucket this
// transaction is about to create.
func (l *Ledger) lockProjects(ctx context.Context, tx dbx.DBTX, keys ...models.StockKey) error {
	var ids []int64
	for _, k := range keys {
		if k.ProjectID != nil && !slices.Contains(ids, *k.ProjectID) {
			ids = append(ids, *k.ProjectID)
		}
	}
	slices.Sort(ids)

	repo := l.repomanager.Projects(tx)
	for _, id := range ids {
		if err := repo.LockShared(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type bucket struct {
	key    models.StockKey
	create bool

	qty    int64
	exists bool
}

// lockBuckets locks the buckets in canonical key order, creating the ones
// marked create. Missing buckets not marked create read as zero.
func lockBuckets(ctx context.Context, repo items.Repository, bs ...*bucket) error {
	sort.Slice(bs, func(i, j int) bool { return bs[i].key.Less(bs[j].key) })

	for _, b := range bs {
		if b.create {
			if err := repo.Ensure(ctx, b.key); err != nil {
				return err
			}
		}
		qty, err := repo.Lock(ctx, b.key)
		if err != nil {
			if !b.create && errors.Is(err, common.ErrNotFound) {
				continue
			}
			return err
		}
		b.qty, b.exists = qty, true
	}
	return nil
}

// addQty adds to a bucket quantity, refusing to wrap past MaxInt64.
func addQty(a, b int64) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, errQtyOverflow
	}
	return a + b, nil
}

func floorSub(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}
