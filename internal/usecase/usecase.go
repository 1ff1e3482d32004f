package usecase

import "context"

type ProductUC interface {
	ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	SearchProducts(ctx context.Context, name string) ([]ProductInfo, error)
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	GetProductHistory(ctx context.Context, id int64) ([]HistoryEntryInfo, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ImportUC interface {
	ImportProducts(ctx context.Context, req *ImportProductsReq) (*ImportProductsRes, error)
	ExportProducts(ctx context.Context) (*ExportProductsRes, error)
}

type AuthUC interface {
	Register(ctx context.Context, req *RegisterReq) (*AuthRes, error)
	Login(ctx context.Context, req *LoginReq) (*AuthRes, error)
	Authenticate(ctx context.Context, token string) (*Claims, error)
}
