package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
)

func TestStockChangedRoundTrip(t *testing.T) {
	event := &usecase.StockChangedEvent{
		EventID:     "3f0c6a2e-1b8e-4c56-9d44-0a3c1f6e7b21",
		ProductID:   17,
		OldQuantity: 10,
		NewQuantity: 7,
		ChangedBy:   "alice",
		ChangedAt:   time.Date(2026, 5, 4, 10, 30, 15, 123000000, time.UTC),
	}

	data, err := NewProtoEncoder().EncodeStockChanged(event)
	if err != nil {
		t.Fatalf("EncodeStockChanged: %v", err)
	}

	got, err := DecodeStockChanged(data)
	if err != nil {
		t.Fatalf("DecodeStockChanged: %v", err)
	}
	if got.EventID != event.EventID || got.ProductID != 17 || got.OldQuantity != 10 ||
		got.NewQuantity != 7 || got.ChangedBy != "alice" || !got.ChangedAt.Equal(event.ChangedAt) {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
}

type fakeOutbox struct {
	mu        sync.Mutex
	pending   []*usecase.OutboxEvent
	processed []int64
	returned  []int64
	fetchErr  error
}

func (f *fakeOutbox) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	n := min(limit, len(f.pending))
	batch := f.pending[:n]
	f.pending = f.pending[n:]

	return batch, nil
}

func (f *fakeOutbox) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutbox) MarkAsPending(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned = append(f.returned, id)
	return nil
}

type fakeProducer struct {
	mu     sync.Mutex
	sent   []int64
	failOn map[int64]error
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failOn[req.ProductID]; err != nil {
		return err
	}
	f.sent = append(f.sent, req.ProductID)
	return nil
}

func outboxEvents(ids ...int64) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(ids))
	for _, id := range ids {
		res = append(res, &usecase.OutboxEvent{ID: id, ProductID: id, Status: usecase.Processing})
	}

	return res
}

func TestProcessBatch(t *testing.T) {
	repo := &fakeOutbox{pending: outboxEvents(1, 2, 3)}
	producer := &fakeProducer{failOn: map[int64]error{2: errors.New("dial tcp: connection refused")}}
	w := NewOutboxWorker(repo, logger.NewDiscard(), producer, time.Second, 2)

	hasMore, err := w.processBatch(context.Background())
	if err == nil {
		t.Fatalf("expected send error")
	}
	if hasMore {
		t.Fatalf("failed batch must not request next one")
	}
	if len(repo.processed) != 1 || repo.processed[0] != 1 {
		t.Fatalf("unexpected processed: %v", repo.processed)
	}
	if len(repo.returned) != 1 || repo.returned[0] != 2 {
		t.Fatalf("unexpected returned to pending: %v", repo.returned)
	}

	hasMore, err = w.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if hasMore {
		t.Fatalf("partial batch means queue is drained")
	}
	if len(producer.sent) != 2 || producer.sent[1] != 3 {
		t.Fatalf("unexpected sent: %v", producer.sent)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	repo := &fakeOutbox{pending: outboxEvents(1, 2, 3, 4, 5)}
	producer := &fakeProducer{}
	w := NewOutboxWorker(repo, logger.NewDiscard(), producer, time.Second, 2)

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(producer.sent) != 5 || len(repo.processed) != 5 {
		t.Fatalf("expected all events sent: sent %v, processed %v", producer.sent, repo.processed)
	}
}

func TestWorkerStop(t *testing.T) {
	repo := &fakeOutbox{fetchErr: errors.New("database is locked")}
	w := NewOutboxWorker(repo, logger.NewDiscard(), &fakeProducer{}, 10*time.Millisecond, 10)

	w.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 10.0.0.1:9092: i/o timeout"), true},
		{errors.New("[5] Leader Not Available"), false},
		{errors.New("write: broken pipe"), true},
	}

	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
