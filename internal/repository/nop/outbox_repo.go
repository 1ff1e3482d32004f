package nop

import (
	"context"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
)

// OutboxRepo используется, когда Kafka выключена: события не сохраняются, очередь всегда пуста.
type OutboxRepo struct{}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{}
}

func (OutboxRepo) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (OutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*usecase.OutboxEvent, error) {
	return nil, nil
}

func (OutboxRepo) MarkAsProcessed(context.Context, int64) error {
	return nil
}

func (OutboxRepo) MarkAsPending(context.Context, int64) error {
	return nil
}
