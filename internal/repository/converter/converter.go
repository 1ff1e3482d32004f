// Package converter преобразует сущности domain/usecase в модели SQL-хранилищ и обратно.
// Используется и PostgreSQL, и SQLite репозиториями: схемы таблиц у них совпадают.
package converter

import (
	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью хранилища.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
	ToArrEntity(models []ProductModel) []domain.Product
}

// InventoryHistoryConverter преобразует записи истории остатков.
type InventoryHistoryConverter interface {
	ToModel(entity *domain.InventoryHistoryEntry) *InventoryHistoryModel
	ToEntity(model *InventoryHistoryModel) *domain.InventoryHistoryEntry
	ToArrEntity(models []InventoryHistoryModel) []domain.InventoryHistoryEntry
}

// UserConverter преобразует сущности User.
type UserConverter interface {
	ToModel(entity *domain.User) *UserModel
	ToEntity(model *UserModel) *domain.User
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью хранилища.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func (ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
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

func (ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	return &domain.Product{
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

func (c ProductConverterImpl) ToArrEntity(models []ProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}

	return res
}

type InventoryHistoryConverterImpl struct{}

func (InventoryHistoryConverterImpl) ToModel(entity *domain.InventoryHistoryEntry) *InventoryHistoryModel {
	if entity == nil {
		return nil
	}

	return &InventoryHistoryModel{
		ID:          entity.ID,
		ProductID:   entity.ProductID,
		OldQuantity: entity.OldQuantity,
		NewQuantity: entity.NewQuantity,
		ChangeDate:  entity.ChangeDate,
		ChangedBy:   entity.ChangedBy,
	}
}

func (InventoryHistoryConverterImpl) ToEntity(model *InventoryHistoryModel) *domain.InventoryHistoryEntry {
	if model == nil {
		return nil
	}

	return &domain.InventoryHistoryEntry{
		ID:          model.ID,
		ProductID:   model.ProductID,
		OldQuantity: model.OldQuantity,
		NewQuantity: model.NewQuantity,
		ChangeDate:  model.ChangeDate.UTC(),
		ChangedBy:   model.ChangedBy,
	}
}

func (c InventoryHistoryConverterImpl) ToArrEntity(models []InventoryHistoryModel) []domain.InventoryHistoryEntry {
	res := make([]domain.InventoryHistoryEntry, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}

	return res
}

type UserConverterImpl struct{}

func (UserConverterImpl) ToModel(entity *domain.User) *UserModel {
	if entity == nil {
		return nil
	}

	return &UserModel{
		ID:           entity.ID,
		Username:     entity.Username,
		Email:        entity.Email,
		PasswordHash: entity.PasswordHash,
		CreatedAt:    entity.CreatedAt,
	}
}

func (UserConverterImpl) ToEntity(model *UserModel) *domain.User {
	if model == nil {
		return nil
	}

	return &domain.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt.UTC(),
	}
}

type OutboxEventConverterImpl struct{}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		res = append(res, c.ToEntity(m))
	}

	return res
}
