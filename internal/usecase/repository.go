package usecase

import (
	"context"
	"io"

	"github.com/DRSN-tech/inventory-service/internal/domain"
)

// ProductRepository — хранилище товаров. Все методы работают внутри текущей транзакции из контекста, если она есть.
type ProductRepository interface {
	List(ctx context.Context, query *ProductQuery) ([]domain.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	Search(ctx context.Context, name string) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetByIDForUpdate блокирует строку до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	// FindByName ищет товар по имени без учета регистра, excludeID = 0 — без исключений.
	FindByName(ctx context.Context, name string, excludeID int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.InventoryHistoryEntry) (*domain.InventoryHistoryEntry, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryHistoryEntry, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}

type CacheRepository interface {
	// GetProduct возвращает nil, nil при промахе.
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	SetProduct(ctx context.Context, product *ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type UploadRepository interface {
	Upload(ctx context.Context, upload *domain.Upload, data io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
