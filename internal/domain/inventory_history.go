package domain

import "time"

// DefaultChangedBy — автор изменения остатка, если он не передан в запросе.
const DefaultChangedBy = "admin"

// InventoryHistoryEntry — запись об изменении остатка товара.
// Создается только если остаток действительно изменился.
type InventoryHistoryEntry struct {
	ID          int64
	ProductID   int64
	OldQuantity int64
	NewQuantity int64
	ChangeDate  time.Time
	ChangedBy   string
}

func NewInventoryHistoryEntry(productID, oldQty, newQty int64, changedBy string, at time.Time) *InventoryHistoryEntry {
	if changedBy == "" {
		changedBy = DefaultChangedBy
	}

	return &InventoryHistoryEntry{
		ProductID:   productID,
		OldQuantity: oldQty,
		NewQuantity: newQty,
		ChangeDate:  at.UTC(),
		ChangedBy:   changedBy,
	}
}
