package sqlitedb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

const productColumns = "id, name, unit, category, brand, stock, status, image"

// ProductRepo реализует репозиторий товаров поверх SQLite.
// Все записи идут через одно соединение, поэтому блокировка строки не нужна.
type ProductRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	conv   converter.ProductConverter
}

func NewProductRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:     db,
		getter: getter,
		conv:   conv,
	}
}

func (p *ProductRepo) List(ctx context.Context, query *usecase.ProductQuery) ([]domain.Product, error) {
	where, args := productWhere(query.Filter)
	args = append(args, query.Limit(), query.Offset())

	products, err := p.selectProducts(ctx,
		"SELECT "+productColumns+" FROM products"+where+orderBy(query)+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) Count(ctx context.Context, filter usecase.ProductFilter) (int64, error) {
	where, args := productWhere(filter)

	var total int64
	if err := sqlx.GetContext(ctx, p.tr(ctx), &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return total, nil
}

func (p *ProductRepo) Search(ctx context.Context, name string) ([]domain.Product, error) {
	products, err := p.selectProducts(ctx,
		"SELECT "+productColumns+` FROM products WHERE name LIKE ? ESCAPE '\' ORDER BY id DESC`, likePattern(name))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := p.selectProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY id DESC")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return p.getOne(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
}

func (p *ProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return p.GetByID(ctx, id)
}

// FindByName сравнивает имена через COLLATE NOCASE колонки name.
func (p *ProductRepo) FindByName(ctx context.Context, name string, excludeID int64) (*domain.Product, error) {
	return p.getOne(ctx,
		"SELECT "+productColumns+" FROM products WHERE name = ? AND id <> ? LIMIT 1", name, excludeID)
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (name, unit, category, brand, stock, status, image)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + productColumns

	var created converter.ProductModel
	if err := sqlx.GetContext(ctx, p.tr(ctx), &created, query,
		model.Name, model.Unit, model.Category, model.Brand, model.Stock, model.Status, model.Image,
	); err != nil {
		if sqliteDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductAlreadyExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&created), nil
}

func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET name = ?, unit = ?, category = ?, brand = ?, stock = ?, status = ?, image = ?
		WHERE id = ?
		RETURNING ` + productColumns

	var updated converter.ProductModel
	err := sqlx.GetContext(ctx, p.tr(ctx), &updated, query,
		model.Name, model.Unit, model.Category, model.Brand, model.Stock, model.Status, model.Image, model.ID,
	)
	switch {
	case err == nil:
		return p.conv.ToEntity(&updated), nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	case sqliteDuplicate(err):
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductAlreadyExists)
	default:
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := p.tr(ctx).ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if affected == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) tr(ctx context.Context) trmsqlx.Tr {
	return p.getter.DefaultTrOrDB(ctx, p.db)
}

func (p *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var model converter.ProductModel
	if err := sqlx.GetContext(ctx, p.tr(ctx), &model, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

func (p *ProductRepo) selectProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	var models []converter.ProductModel
	if err := sqlx.SelectContext(ctx, p.tr(ctx), &models, query, args...); err != nil {
		return nil, err
	}

	return p.conv.ToArrEntity(models), nil
}
