// Package nop содержит заглушки репозиториев для выключенных подсистем.
package nop

import (
	"context"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
)

// CacheRepo используется, когда Redis выключен: всегда промах, запись игнорируется.
type CacheRepo struct{}

func NewCacheRepo() *CacheRepo {
	return &CacheRepo{}
}

func (CacheRepo) GetProduct(context.Context, int64) (*usecase.ProductInfo, error) {
	return nil, nil
}

func (CacheRepo) SetProduct(context.Context, *usecase.ProductInfo) error {
	return nil
}

func (CacheRepo) DeleteProducts(context.Context, []int64) error {
	return nil
}
