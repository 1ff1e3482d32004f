package http

import (
	"time"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
)

// ProductRequest — тело создания и полной замены товара.
type ProductRequest struct {
	Name      string  `json:"name"`
	Unit      *string `json:"unit"`
	Category  *string `json:"category"`
	Brand     *string `json:"brand"`
	Stock     flexInt `json:"stock" swaggertype:"integer"`
	Status    *string `json:"status"`
	Image     *string `json:"image"`
	ChangedBy string  `json:"changedBy,omitempty"`
}

type ProductResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	Brand    *string `json:"brand"`
	Stock    int64   `json:"stock"`
	Status   *string `json:"status"`
	Image    *string `json:"image"`
}

type PaginationResponse struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type ListProductsResponse struct {
	Products   []ProductResponse  `json:"products"`
	Pagination PaginationResponse `json:"pagination"`
}

type HistoryEntryResponse struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	OldQuantity int64     `json:"old_quantity"`
	NewQuantity int64     `json:"new_quantity"`
	ChangeDate  time.Time `json:"change_date"`
	ChangedBy   string    `json:"changed_by"`
}

type DuplicateResponse struct {
	Name       string `json:"name"`
	ExistingID int64  `json:"existingId"`
}

type ImportResponse struct {
	Added      int                 `json:"added"`
	Skipped    int                 `json:"skipped"`
	Duplicates []DuplicateResponse `json:"duplicates"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

func (p *ProductRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:     p.Name,
		Unit:     p.Unit,
		Category: p.Category,
		Brand:    p.Brand,
		Stock:    p.Stock.Value,
		Status:   p.Status,
		Image:    p.Image,

		StockOmitted: !p.Stock.Set,
	}
}

func toProductResponse(p *usecase.ProductInfo) ProductResponse {
	return ProductResponse{
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

func toArrProductResponse(products []usecase.ProductInfo) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}

	return res
}

func toListProductsResponse(res *usecase.ListProductsRes) ListProductsResponse {
	pg := res.Pagination
	return ListProductsResponse{
		Products: toArrProductResponse(res.Products),
		Pagination: PaginationResponse{
			CurrentPage:  pg.CurrentPage,
			TotalPages:   pg.TotalPages,
			TotalItems:   pg.TotalItems,
			ItemsPerPage: pg.ItemsPerPage,
			HasNextPage:  pg.HasNextPage,
			HasPrevPage:  pg.HasPrevPage,
		},
	}
}

func toArrHistoryEntryResponse(entries []usecase.HistoryEntryInfo) []HistoryEntryResponse {
	res := make([]HistoryEntryResponse, 0, len(entries))
	for _, h := range entries {
		res = append(res, HistoryEntryResponse{
			ID:          h.ID,
			ProductID:   h.ProductID,
			OldQuantity: h.OldQuantity,
			NewQuantity: h.NewQuantity,
			ChangeDate:  h.ChangeDate,
			ChangedBy:   h.ChangedBy,
		})
	}

	return res
}

func toImportResponse(res *usecase.ImportProductsRes) ImportResponse {
	duplicates := make([]DuplicateResponse, 0, len(res.Duplicates))
	for _, d := range res.Duplicates {
		duplicates = append(duplicates, DuplicateResponse{Name: d.Name, ExistingID: d.ExistingID})
	}

	return ImportResponse{
		Added:      res.Added,
		Skipped:    res.Skipped,
		Duplicates: duplicates,
	}
}

func toAuthResponse(message string, res *usecase.AuthRes) AuthResponse {
	return AuthResponse{
		Message: message,
		Token:   res.Token,
		User: UserResponse{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
		},
	}
}
