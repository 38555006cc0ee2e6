package models

// Inventory maps an external correlation id (supplied by the game) to the
// internal id every stored item refers to.
type Inventory struct {
	ID         int64
	ExternalID string
}

// StockKey identifies one attribution bucket: an item in an inventory,
// optionally claimed by a project. A nil ProjectID is the unattributed bucket.
type StockKey struct {
	InventoryID int64
	ItemID      string
	ProjectID   *int64
}

// Less orders keys canonically (inventory, item, then project with the
// unattributed bucket first). Rows are always locked in this order.
func (k StockKey) Less(o StockKey) bool {
	if k.InventoryID != o.InventoryID {
		return k.InventoryID < o.InventoryID
	}
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	switch {
	case k.ProjectID == nil:
		return o.ProjectID != nil
	case o.ProjectID == nil:
		return false
	default:
		return *k.ProjectID < *o.ProjectID
	}
}

// SameBucket reports whether both keys address the same row.
func (k StockKey) SameBucket(o StockKey) bool {
	return !k.Less(o) && !o.Less(k)
}

type StoredItem struct {
	StockKey
	Quantity int64
}
