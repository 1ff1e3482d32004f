package kafka

import (
	"time"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoEncoder кодирует события в protobuf (google.protobuf.Struct).
// Числа в Struct хранятся как double, для количеств на складе этого достаточно.
type ProtoEncoder struct{}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{}
}

func (ProtoEncoder) EncodeStockChanged(event *usecase.StockChangedEvent) ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]any{
		"event_id":     event.EventID,
		"event_type":   string(usecase.StockChanged),
		"product_id":   event.ProductID,
		"old_quantity": event.OldQuantity,
		"new_quantity": event.NewQuantity,
		"changed_by":   event.ChangedBy,
		"changed_at":   event.ChangedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := proto.Marshal(payload)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// DecodeStockChanged разбирает сообщение, закодированное EncodeStockChanged.
func DecodeStockChanged(data []byte) (*usecase.StockChangedEvent, error) {
	var payload structpb.Struct
	if err := proto.Unmarshal(data, &payload); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	fields := payload.GetFields()
	changedAt, err := time.Parse(time.RFC3339Nano, fields["changed_at"].GetStringValue())
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &usecase.StockChangedEvent{
		EventID:     fields["event_id"].GetStringValue(),
		ProductID:   int64(fields["product_id"].GetNumberValue()),
		OldQuantity: int64(fields["old_quantity"].GetNumberValue()),
		NewQuantity: int64(fields["new_quantity"].GetNumberValue()),
		ChangedBy:   fields["changed_by"].GetStringValue(),
		ChangedAt:   changedAt,
	}, nil
}
