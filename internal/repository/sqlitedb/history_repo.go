package sqlitedb

import (
	"context"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

type HistoryRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	conv   converter.InventoryHistoryConverter
}

func NewHistoryRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, conv converter.InventoryHistoryConverter) *HistoryRepo {
	return &HistoryRepo{
		db:     db,
		getter: getter,
		conv:   conv,
	}
}

func (h *HistoryRepo) Create(ctx context.Context, entry *domain.InventoryHistoryEntry) (*domain.InventoryHistoryEntry, error) {
	model := h.conv.ToModel(entry)
	query := `
		INSERT INTO inventory_history (product_id, old_quantity, new_quantity, change_date, changed_by)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	if err := sqlx.GetContext(ctx, h.getter.DefaultTrOrDB(ctx, h.db), &model.ID, query,
		model.ProductID, model.OldQuantity, model.NewQuantity, model.ChangeDate.UTC(), model.ChangedBy,
	); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return h.conv.ToEntity(model), nil
}

func (h *HistoryRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryHistoryEntry, error) {
	query := `
		SELECT id, product_id, old_quantity, new_quantity, change_date, changed_by
		FROM inventory_history
		WHERE product_id = ?
		ORDER BY change_date DESC, id DESC
	`

	var models []converter.InventoryHistoryModel
	if err := sqlx.SelectContext(ctx, h.getter.DefaultTrOrDB(ctx, h.db), &models, query, productID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return h.conv.ToArrEntity(models), nil
}
