package usecase

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/domain"
)

// PRODUCT USECASE

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSort     = "id"
)

// allowedSortFields — поля, по которым разрешена сортировка. Имена совпадают с колонками таблицы products.
var allowedSortFields = map[string]struct{}{
	"id":       {},
	"name":     {},
	"category": {},
	"brand":    {},
	"stock":    {},
	"status":   {},
}

// ProductInput — поля товара, передаваемые при создании и полной замене.
type ProductInput struct {
	Name     string
	Unit     *string
	Category *string
	Brand    *string
	Stock    int64
	Status   *string
	Image    *string

	// StockOmitted — клиент не передал stock или передал null.
	StockOmitted bool
}

type CreateProductReq struct {
	ProductInput
}

// UpdateProductReq — полная замена полей товара. ChangedBy попадает в историю остатков.
type UpdateProductReq struct {
	ID int64
	ProductInput
	ChangedBy string
}

// ListProductsReq — сырые параметры списка товаров, как они пришли от клиента.
type ListProductsReq struct {
	Category string
	Name     string
	Page     int
	PageSize int
	Sort     string
	Order    string
}

// ProductFilter — условия WHERE, общие для запроса страницы и подсчета.
type ProductFilter struct {
	Category string // точное совпадение
	Name     string // подстрока без учета регистра
}

// ProductQuery — нормализованный запрос страницы товаров.
type ProductQuery struct {
	Filter     ProductFilter
	SortField  string // всегда из allowedSortFields
	Descending bool
	Page       int
	PageSize   int
}

func (q *ProductQuery) Limit() int {
	return q.PageSize
}

func (q *ProductQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Pagination — метаданные страницы.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	TotalItems   int64
	ItemsPerPage int
	HasNextPage  bool
	HasPrevPage  bool
}

type ListProductsRes struct {
	Products   []ProductInfo
	Pagination Pagination
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID       int64
	Name     string
	Unit     *string
	Category *string
	Brand    *string
	Stock    int64
	Status   *string
	Image    *string
}

// HistoryEntryInfo — DTO записи истории остатков.
type HistoryEntryInfo struct {
	ID          int64
	ProductID   int64
	OldQuantity int64
	NewQuantity int64
	ChangeDate  time.Time
	ChangedBy   string
}

// IMPORT / EXPORT

// ImportProductsReq — загруженный CSV-файл.
type ImportProductsReq struct {
	FileName    string
	ContentType string
	Size        int64
	File        io.Reader
}

// Duplicate — строка импорта, пропущенная из-за существующего товара с тем же именем.
type Duplicate struct {
	Name       string
	ExistingID int64
}

type ImportProductsRes struct {
	Added      int
	Skipped    int
	Duplicates []Duplicate
}

type ExportProductsRes struct {
	FileName    string
	ContentType string
	Data        []byte
}

// StoreUploadReq — запрос на сохранение временного файла.
type StoreUploadReq struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// AUTH

type RegisterReq struct {
	Username string
	Email    string
	Password string
}

type LoginReq struct {
	Email    string
	Password string
}

type AuthRes struct {
	Token string
	User  UserInfo
}

// UserInfo — публичные данные пользователя, без хэша пароля.
type UserInfo struct {
	ID       int64
	Username string
	Email    string
}

// Claims — содержимое bearer-токена.
type Claims struct {
	UserID    int64
	Username  string
	Email     string
	ExpiresAt time.Time
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	StockChanged OutboxEventType = "stock_changed"
)

// OutboxEvent — событие, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// StockChangedEvent — содержимое события изменения остатка.
type StockChangedEvent struct {
	EventID     string
	ProductID   int64
	OldQuantity int64
	NewQuantity int64
	ChangedBy   string
	ChangedAt   time.Time
}

type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

// NewProductQuery нормализует параметры: неизвестное поле сортировки — id, неизвестное направление — DESC.
func NewProductQuery(req *ListProductsReq) *ProductQuery {
	sortField := strings.ToLower(strings.TrimSpace(req.Sort))
	if _, ok := allowedSortFields[sortField]; !ok {
		sortField = DefaultSort
	}

	page := req.Page
	if page < 1 {
		page = DefaultPage
	}

	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	// смещение (page-1)*pageSize не должно переполнять int
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}

	return &ProductQuery{
		Filter: ProductFilter{
			Category: req.Category,
			Name:     req.Name,
		},
		SortField:  sortField,
		Descending: !strings.EqualFold(strings.TrimSpace(req.Order), "asc"),
		Page:       page,
		PageSize:   pageSize,
	}
}

func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: pageSize,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

func NewListProductsRes(products []ProductInfo, pagination Pagination) *ListProductsRes {
	return &ListProductsRes{
		Products:   products,
		Pagination: pagination,
	}
}

func NewProductInfo(p *domain.Product) ProductInfo {
	return ProductInfo{
		ID:       p.ID,
		Name:     p.Name,
		Unit:     p.Unit,
		Category: p.Category,
		Brand:    p.Brand,
		Stock:    p.Stock,
		Status:   p.Status,
		Image:    p.Image,
	}
}

func NewArrProductInfo(products []domain.Product) []ProductInfo {
	res := make([]ProductInfo, 0, len(products))
	for i := range products {
		res = append(res, NewProductInfo(&products[i]))
	}

	return res
}

func NewHistoryEntryInfo(h *domain.InventoryHistoryEntry) HistoryEntryInfo {
	return HistoryEntryInfo{
		ID:          h.ID,
		ProductID:   h.ProductID,
		OldQuantity: h.OldQuantity,
		NewQuantity: h.NewQuantity,
		ChangeDate:  h.ChangeDate,
		ChangedBy:   h.ChangedBy,
	}
}

func NewArrHistoryEntryInfo(entries []domain.InventoryHistoryEntry) []HistoryEntryInfo {
	res := make([]HistoryEntryInfo, 0, len(entries))
	for i := range entries {
		res = append(res, NewHistoryEntryInfo(&entries[i]))
	}

	return res
}

func NewUserInfo(u *domain.User) UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func NewAuthRes(token string, user *domain.User) *AuthRes {
	return &AuthRes{
		Token: token,
		User:  NewUserInfo(user),
	}
}

func NewImportProductsReq(fileName, contentType string, size int64, file io.Reader) *ImportProductsReq {
	return &ImportProductsReq{
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		File:        file,
	}
}

func NewStoreUploadReq(name, contentType string, size int64, data io.Reader) *StoreUploadReq {
	return &StoreUploadReq{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Data:        data,
	}
}

func NewStockChangedEvent(eventID string, entry *domain.InventoryHistoryEntry) *StockChangedEvent {
	return &StockChangedEvent{
		EventID:     eventID,
		ProductID:   entry.ProductID,
		OldQuantity: entry.OldQuantity,
		NewQuantity: entry.NewQuantity,
		ChangedBy:   entry.ChangedBy,
		ChangedAt:   entry.ChangeDate,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: createdAt,
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
