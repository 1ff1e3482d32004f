package usecase

import (
	"context"
	"io"

	"github.com/DRSN-tech/inventory-service/internal/domain"
)

// UploadsInfra управляет временными файлами импорта.
type UploadsInfra interface {
	Store(ctx context.Context, req *StoreUploadReq) (*domain.Upload, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Release запускает фоновое удаление файла.
	Release(key string)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenManager interface {
	Issue(user *domain.User) (string, error)
	Parse(token string) (*Claims, error)
}

type EventEncoder interface {
	EncodeStockChanged(event *StockChangedEvent) ([]byte, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
