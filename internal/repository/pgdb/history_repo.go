package pgdb

import (
	"context"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// HistoryRepo хранит историю изменений остатков.
type HistoryRepo struct {
	pool   *pgxpool.Pool
	getter *trmpgx.CtxGetter
	conv   converter.InventoryHistoryConverter
}

func NewHistoryRepo(pool *pgxpool.Pool, getter *trmpgx.CtxGetter, conv converter.InventoryHistoryConverter) *HistoryRepo {
	return &HistoryRepo{
		pool:   pool,
		getter: getter,
		conv:   conv,
	}
}

func (h *HistoryRepo) Create(ctx context.Context, entry *domain.InventoryHistoryEntry) (*domain.InventoryHistoryEntry, error) {
	model := h.conv.ToModel(entry)
	query := `
		INSERT INTO inventory_history (product_id, old_quantity, new_quantity, change_date, changed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := h.getter.DefaultTrOrDB(ctx, h.pool).QueryRow(ctx, query,
		model.ProductID, model.OldQuantity, model.NewQuantity, model.ChangeDate, model.ChangedBy,
	).Scan(&model.ID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return h.conv.ToEntity(model), nil
}

// ListByProduct возвращает историю товара, новые записи первыми.
func (h *HistoryRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryHistoryEntry, error) {
	query := `
		SELECT id, product_id, old_quantity, new_quantity, change_date, changed_by
		FROM inventory_history
		WHERE product_id = $1
		ORDER BY change_date DESC, id DESC
	`

	rows, err := h.getter.DefaultTrOrDB(ctx, h.pool).Query(ctx, query, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.InventoryHistoryModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return h.conv.ToArrEntity(models), nil
}
