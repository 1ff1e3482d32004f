package sqlitedb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

type OutboxEventRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	conv   converter.OutboxEventConverter
}

func NewOutboxEventRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		db:     db,
		getter: getter,
		conv:   conv,
	}
}

func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (event_id, event_type, product_id, payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	if err := sqlx.GetContext(ctx, o.getter.DefaultTrOrDB(ctx, o.db), &model.ID, query,
		model.EventID, model.EventType, model.ProductID, model.Payload, model.Status, model.CreatedAt.UTC(),
	); err != nil {
		if sqliteDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.EventID)
		}

		return nil, fmt.Errorf("%s: failed to insert event: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку ожидающих событий одним UPDATE ... RETURNING.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = ?, processing_started_at = CURRENT_TIMESTAMP
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = ?
			ORDER BY created_at, id
			LIMIT ?
		)
		RETURNING id, event_id, event_type, product_id, payload, status, created_at, processed_at
	`

	var models []*converter.OutboxEventModel
	if err := sqlx.SelectContext(ctx, o.db, &models, query, string(usecase.Processing), string(usecase.Pending), limit); err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	if _, err := o.db.ExecContext(ctx, query, string(usecase.Processed), id, string(usecase.Processing)); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

func (o *OutboxEventRepo) MarkAsPending(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = ?, processing_started_at = NULL
		WHERE id = ? AND status = ?
	`

	if _, err := o.db.ExecContext(ctx, query, string(usecase.Pending), id, string(usecase.Processing)); err != nil {
		return fmt.Errorf("%s: failed to return event %d to pending: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}
