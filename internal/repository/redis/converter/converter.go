package converter

import "github.com/DRSN-tech/inventory-service/internal/usecase"

// ProductInfoConverter преобразует ProductInfo в JSON-модель кэша и обратно.
type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
}

type ProductInfoConverterImpl struct{}

func (ProductInfoConverterImpl) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	if entity == nil {
		return nil
	}

	return &ProductInfoRedisModel{
		ID:       entity.ID,
		Name:     entity.Name,
		Unit:     entity.Unit,
		Category: entity.Category,
		Brand:    entity.Brand,
		Stock:    entity.Stock,
		Status:   entity.Status,
		Image:    entity.Image,
	}
}

func (ProductInfoConverterImpl) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	if model == nil {
		return nil
	}

	return &usecase.ProductInfo{
		ID:       model.ID,
		Name:     model.Name,
		Unit:     model.Unit,
		Category: model.Category,
		Brand:    model.Brand,
		Stock:    model.Stock,
		Status:   model.Status,
		Image:    model.Image,
	}
}
