package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Страница товаров с фильтрами, сортировкой и пагинацией
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			category	query		string	false	"Категория (точное совпадение)"
//	@Param			name		query		string	false	"Подстрока имени"
//	@Param			page		query		int		false	"Номер страницы"	default(1)
//	@Param			limit		query		int		false	"Размер страницы"	default(10)
//	@Param			sort		query		string	false	"Поле сортировки"	Enums(id, name, category, brand, stock, status)
//	@Param			order		query		string	false	"Направление"		Enums(asc, desc)
//	@Success		200			{object}	ListProductsResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := p.productUsecase.ListProducts(r.Context(), &usecase.ListProductsReq{
		Category: q.Get("category"),
		Name:     q.Get("name"),
		Page:     atoiOrZero(q.Get("page")),
		PageSize: atoiOrZero(q.Get("limit")),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	})
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toListProductsResponse(res))
}

// searchProducts
//
//	@Summary		Поиск товаров
//	@Description	Все товары, имя которых содержит подстроку, без учета регистра
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	query		string	true	"Подстрока имени"
//	@Success		200		{array}		ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/products/search [get]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.SearchProducts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrProductResponse(products))
}

// getProduct
//
//	@Summary	Товар по ID
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// getProductHistory
//
//	@Summary		История остатков
//	@Description	Изменения остатка товара, новые первыми
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"ID товара"
//	@Success		200	{array}		HistoryEntryResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/products/{id}/history [get]
func (p *ProductHandler) getProductHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	entries, err := p.productUsecase.GetProductHistory(r.Context(), id)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrHistoryEntryResponse(entries))
}

// createProduct
//
//	@Summary	Создание товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		product	body		ProductRequest	true	"Товар"
//	@Success	201		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse	"Ошибка валидации или имя занято"
//	@Router		/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, p.logger, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), &usecase.CreateProductReq{ProductInput: req.toInput()})
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	p.logger.Infof("product created: id: %d, name: %s", product.ID, product.Name)
	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// updateProduct
//
//	@Summary		Обновление товара
//	@Description	Полная замена полей товара. Изменение остатка записывается в историю
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"ID товара"
//	@Param			product	body		ProductRequest	true	"Товар"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, p.logger, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), &usecase.UpdateProductReq{
		ID:           id,
		ProductInput: req.toInput(),
		ChangedBy:    req.ChangedBy,
	})
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	if claims, ok := ClaimsFromContext(r.Context()); ok {
		p.logger.Infof("product updated: id: %d, user: %s", id, claims.Username)
	}
	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	MessageResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, p.logger, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		WriteError(w, p.logger, err)
		return
	}

	p.logger.Infof("product deleted: id: %d", id)
	WriteSuccess(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}

// atoiOrZero возвращает 0 для пустых и нечисловых значений, нормализация — в usecase.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}

