package dispatch

import (
	"context"

	"github.com/simplegameutils/sgu/internal/protocol"
	"github.com/simplegameutils/sgu/internal/server/models"
)

func (r *Router) inventoryAdd(ctx context.Context, _ *call, p *protocol.InventoryRef) ([]any, error) {
	if _, err := r.ledger.AddInventory(ctx, p.ExternalID); err != nil {
		return nil, err
	}
	return []any{protocol.NewInventorySuccess("Inventory is now tracked.", p.ExternalID)}, nil
}

func (r *Router) inventoryRemove(ctx context.Context, _ *call, p *protocol.InventoryRef) ([]any, error) {
	if err := r.ledger.RemoveInventory(ctx, p.ExternalID); err != nil {
		return nil, err
	}
	return []any{protocol.NewInventorySuccess("Inventory is no longer tracked.", p.ExternalID)}, nil
}

func (r *Router) itemGet(ctx context.Context, _ *call, p *protocol.InventoryRef) ([]any, error) {
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	items, err := r.ledger.Items(ctx, inv)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewItemContents(p.ExternalID, stockEntries(items))}, nil
}

func (r *Router) itemAdd(ctx context.Context, c *call, p *protocol.ItemChange) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), p.ProjectID); err != nil {
		return nil, err
	}
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	qty, err := r.ledger.Add(ctx, inv, p.ItemID, p.Qty, p.ProjectID)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewItemQty(p.ExternalID, p.ItemID, qty, p.ProjectID)}, nil
}

func (r *Router) itemRemove(ctx context.Context, c *call, p *protocol.ItemChange) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), p.ProjectID); err != nil {
		return nil, err
	}
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	qty, err := r.ledger.Remove(ctx, inv, p.ItemID, p.Qty, p.ProjectID)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewItemQty(p.ExternalID, p.ItemID, qty, p.ProjectID)}, nil
}

func (r *Router) itemDelete(ctx context.Context, c *call, p *protocol.ItemDelete) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), p.ProjectID); err != nil {
		return nil, err
	}
	inv, err := r.ledger.ResolveInventory(ctx, p.ExternalID)
	if err != nil {
		return nil, err
	}
	if err := r.ledger.Delete(ctx, inv, p.ItemID, p.ProjectID); err != nil {
		return nil, err
	}
	return []any{protocol.NewItemDeleted(p.ExternalID, p.ItemID, p.ProjectID)}, nil
}

func (r *Router) itemTransfer(ctx context.Context, c *call, p *protocol.ItemTransfer) ([]any, error) {
	if err := r.requireVisible(ctx, c.sess.UserID(), p.SourceProjectID, p.TargetProjectID); err != nil {
		return nil, err
	}
	src, err := r.ledger.ResolveInventory(ctx, p.SourceID)
	if err != nil {
		return nil, err
	}
	dst, err := r.ledger.ResolveInventory(ctx, p.TargetID)
	if err != nil {
		return nil, err
	}
	left, total, err := r.ledger.Transfer(ctx, p.ItemID, src, dst, p.Qty, p.SourceProjectID, p.TargetProjectID)
	if err != nil {
		return nil, err
	}
	return []any{protocol.NewItemTransfer(p.ItemID, p.SourceID, left, p.TargetID, total)}, nil
}

func stockEntries(items []models.StoredItem) []protocol.StockEntry {
	out := make([]protocol.StockEntry, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.StockEntry{ItemID: it.ItemID, Qty: it.Quantity, ProjectID: it.ProjectID})
	}
	return out
}
