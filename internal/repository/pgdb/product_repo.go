package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = "id, name, unit, category, brand, stock, status, image"

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool   *pgxpool.Pool
	getter *trmpgx.CtxGetter
	conv   converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, getter *trmpgx.CtxGetter, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool:   pool,
		getter: getter,
		conv:   conv,
	}
}

// List возвращает страницу товаров по фильтру, сортировке и пагинации.
func (p *ProductRepo) List(ctx context.Context, query *usecase.ProductQuery) ([]domain.Product, error) {
	where, args := productWhere(query.Filter)
	args = append(args, query.Limit(), query.Offset())

	sql := "SELECT " + productColumns + " FROM products" + where + orderBy(query) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	products, err := p.queryProducts(ctx, sql, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// Count возвращает число товаров, подходящих под фильтр.
func (p *ProductRepo) Count(ctx context.Context, filter usecase.ProductFilter) (int64, error) {
	where, args := productWhere(filter)

	var total int64
	if err := p.tr(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return total, nil
}

// Search ищет товары по подстроке имени без учета регистра.
func (p *ProductRepo) Search(ctx context.Context, name string) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY id DESC
	`

	products, err := p.queryProducts(ctx, query, likePattern(name))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// ListAll возвращает все товары, новые первыми.
func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := p.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY id DESC")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return p.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
}

// GetByIDForUpdate блокирует строку товара до конца текущей транзакции.
func (p *ProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return p.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
}

// FindByName ищет товар с тем же именем без учета регистра, исключая excludeID.
func (p *ProductRepo) FindByName(ctx context.Context, name string, excludeID int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE lower(name) = lower($1) AND id <> $2
		LIMIT 1
	`

	return p.getOne(ctx, query, name, excludeID)
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (name, unit, category, brand, stock, status, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	row := p.tr(ctx).QueryRow(ctx, query,
		model.Name, model.Unit, model.Category, model.Brand, model.Stock, model.Status, model.Image,
	)

	created, err := p.scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductAlreadyExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

// Update полностью заменяет поля товара.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET name = $1, unit = $2, category = $3, brand = $4, stock = $5, status = $6, image = $7
		WHERE id = $8
		RETURNING ` + productColumns

	row := p.tr(ctx).QueryRow(ctx, query,
		model.Name, model.Unit, model.Category, model.Brand, model.Stock, model.Status, model.Image, model.ID,
	)

	updated, err := p.scanProduct(row)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	case postgresDuplicate(err):
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductAlreadyExists)
	default:
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
}

// Delete удаляет товар, история и события outbox удаляются каскадно.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := p.tr(ctx).Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) tr(ctx context.Context) trmpgx.Tr {
	return p.getter.DefaultTrOrDB(ctx, p.pool)
}

func (p *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	product, err := p.scanProduct(p.tr(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

func (p *ProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := p.tr(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, err
	}

	return p.conv.ToArrEntity(models), nil
}

func (p *ProductRepo) scanProduct(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	if err := row.Scan(
		&model.ID, &model.Name, &model.Unit, &model.Category,
		&model.Brand, &model.Stock, &model.Status, &model.Image,
	); err != nil {
		return nil, err
	}

	return p.conv.ToEntity(&model), nil
}
