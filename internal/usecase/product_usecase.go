package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/DRSN-tech/inventory-service/pkg/tr"
	"github.com/google/uuid"
)

const (
	cacheWriteTimeout         = 500 * time.Millisecond
	defaultCacheRedeleteDelay = 2 * cacheWriteTimeout
)

// ProductUseCase реализует бизнес-логику каталога товаров: выборки, CRUD и историю остатков.
type ProductUseCase struct {
	productRepo ProductRepository
	historyRepo HistoryRepository
	outboxRepo  OutboxRepository
	encoder     EventEncoder
	trManager   tr.Manager
	cacheRepo   CacheRepository
	logger      logger.Logger
	now         func() time.Time

	// cacheRedeleteDelay — задержка повторного удаления товара из кэша после записи.
	cacheRedeleteDelay time.Duration
}

func NewProductUC(
	productRepo ProductRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxRepository,
	encoder EventEncoder,
	trManager tr.Manager,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		historyRepo: historyRepo,
		outboxRepo:  outboxRepo,
		encoder:     encoder,
		trManager:   trManager,
		cacheRepo:   cacheRepo,
		logger:      logger,
		now:         time.Now,

		cacheRedeleteDelay: defaultCacheRedeleteDelay,
	}
}

// ListProducts возвращает страницу товаров и метаданные пагинации.
// Подсчет и выборка используют один и тот же фильтр.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "ProductUseCase.ListProducts"

	query := NewProductQuery(req)

	total, err := p.productRepo.Count(ctx, query.Filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	pagination := NewPagination(query.Page, query.PageSize, total)

	// Страница за пределами выборки пуста
	if int64(query.Offset()) >= total {
		return NewListProductsRes([]ProductInfo{}, pagination), nil
	}

	products, err := p.productRepo.List(ctx, query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewListProductsRes(NewArrProductInfo(products), pagination), nil
}

// SearchProducts ищет товары по подстроке имени без учета регистра, без пагинации.
func (p *ProductUseCase) SearchProducts(ctx context.Context, name string) ([]ProductInfo, error) {
	const op = "ProductUseCase.SearchProducts"

	if strings.TrimSpace(name) == "" {
		return nil, e.Wrap(op, e.ErrSearchNameRequired)
	}

	products, err := p.productRepo.Search(ctx, name)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewArrProductInfo(products), nil
}

// GetProduct возвращает товар по ID, сначала из кэша.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err != nil {
		p.logger.Warnf("Failed to read product from cache: %v", e.Wrap(op, err))
	}
	if cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewProductInfo(product)

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, &info); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return &info, nil
}

// GetProductHistory возвращает историю остатков товара, новые записи первыми.
func (p *ProductUseCase) GetProductHistory(ctx context.Context, id int64) ([]HistoryEntryInfo, error) {
	const op = "ProductUseCase.GetProductHistory"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	entries, err := p.historyRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewArrHistoryEntryInfo(entries), nil
}

// CreateProduct создает товар. Уникальность имени проверяется заранее,
// но окончательная гарантия — уникальный индекс хранилища.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.CreateProduct"

	input := normalizeInput(req.ProductInput)
	if err := validateProductInput(input); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.ensureNameAvailable(ctx, input.Name, 0); err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := p.productRepo.Create(ctx, input.toDomain(0))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewProductInfo(product)
	return &info, nil
}

// UpdateProduct полностью заменяет поля товара.
// Чтение старого остатка и запись выполняются в одной транзакции с блокировкой строки,
// запись истории — во вложенной транзакции и не влияет на результат обновления.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	if req.ID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	input := normalizeInput(req.ProductInput)
	if err := validateProductInput(input); err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Product
	err := p.trManager.Do(ctx, func(ctx context.Context) error {
		current, err := p.productRepo.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if err := p.ensureNameAvailable(ctx, input.Name, req.ID); err != nil {
			return err
		}

		updated, err = p.productRepo.Update(ctx, input.toDomain(req.ID))
		if err != nil {
			return err
		}

		p.recordStockChange(ctx, req.ID, current.Stock, updated.Stock, req.ChangedBy)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, op, req.ID)

	info := NewProductInfo(updated)
	return &info, nil
}

// DeleteProduct удаляет товар, история удаляется каскадно.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	if id <= 0 {
		return e.Wrap(op, e.ErrInvalidID)
	}

	if err := p.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, op, id)
	return nil
}

// recordStockChange пишет запись истории и событие outbox, если остаток изменился.
// Ошибка откатывает только точку сохранения и логируется.
func (p *ProductUseCase) recordStockChange(ctx context.Context, productID, oldStock, newStock int64, changedBy string) {
	const op = "ProductUseCase.recordStockChange"

	if oldStock == newStock {
		return
	}

	err := p.trManager.DoWithSettings(ctx, tr.Nested(), func(ctx context.Context) error {
		entry, err := p.historyRepo.Create(ctx, domain.NewInventoryHistoryEntry(productID, oldStock, newStock, strings.TrimSpace(changedBy), p.now()))
		if err != nil {
			return err
		}

		eventID := uuid.NewString()
		payload, err := p.encoder.EncodeStockChanged(NewStockChangedEvent(eventID, entry))
		if err != nil {
			return err
		}

		_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventID, StockChanged, productID, payload, entry.ChangeDate))
		return err
	})
	if err != nil {
		p.logger.Warnf("Error logging inventory history: product_id: %d, old: %d, new: %d, error: %v",
			productID, oldStock, newStock, e.Wrap(op, err))
	}
}

// ensureNameAvailable возвращает ErrProductAlreadyExists, если имя занято другим товаром.
func (p *ProductUseCase) ensureNameAvailable(ctx context.Context, name string, excludeID int64) error {
	_, err := p.productRepo.FindByName(ctx, name, excludeID)
	switch {
	case err == nil:
		return e.ErrProductAlreadyExists
	case errors.Is(err, e.ErrProductNotFound):
		return nil
	default:
		return err
	}
}

// invalidate удаляет товар из кэша, ошибки только логируются.
// Через cacheRedeleteDelay ключ удаляется еще раз: фоновая запись из GetProduct,
// прочитавшая товар до изменения, могла успеть вернуть его в кэш.
func (p *ProductUseCase) invalidate(ctx context.Context, op string, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}

	go func() {
		time.Sleep(p.cacheRedeleteDelay)

		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := p.cacheRepo.DeleteProducts(bgCtx, []int64{id}); err != nil {
			p.logger.Warnf("Failed to delete products from cache in background: %v", e.Wrap(op, err))
		}
	}()
}

func (in ProductInput) toDomain(id int64) *domain.Product {
	product := domain.NewProduct(in.Name, in.Unit, in.Category, in.Brand, in.Stock, in.Status, in.Image)
	product.ID = id
	return product
}

// normalizeInput обрезает пробелы, пустые необязательные поля становятся NULL.
func normalizeInput(in ProductInput) ProductInput {
	return ProductInput{
		Name:     strings.TrimSpace(in.Name),
		Unit:     optional(in.Unit),
		Category: optional(in.Category),
		Brand:    optional(in.Brand),
		Stock:    in.Stock,
		Status:   optional(in.Status),
		Image:    optional(in.Image),

		StockOmitted: in.StockOmitted,
	}
}

// validateProductInput проверяет корректность полей товара.
func validateProductInput(in ProductInput) error {
	verr := e.NewValidationError()
	if in.Name == "" {
		verr.Add("name", "Name is required")
	}
	switch {
	case in.StockOmitted:
		verr.Add("stock", "Stock is required")
	case in.Stock < 0:
		verr.Add("stock", "Stock must be a non-negative integer")
	}

	return verr.OrNil()
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}

	return optionalString(*s)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
