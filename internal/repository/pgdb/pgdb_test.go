package pgdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/infrastructure/kafka"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/internal/repository/nop"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/DRSN-tech/inventory-service/pkg/postgres"
	"github.com/DRSN-tech/inventory-service/pkg/tr"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
)

// newTestDB подключается к базе из POSTGRES_TEST_DSN и очищает таблицы.
func newTestDB(t *testing.T) *postgres.PgDatabase {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}

	pg, err := postgres.ConnectDSN(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pg.Close)

	if err := pg.RunMigrations(logger.NewDiscard()); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	if _, err := pg.Pool.Exec(context.Background(),
		"TRUNCATE outbox_events, inventory_history, users, products RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return pg
}

func TestProductRepoPostgres(t *testing.T) {
	pg := newTestDB(t)
	ctx := context.Background()
	repo := NewProductRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.ProductConverterImpl{})

	widget, err := repo.Create(ctx, &domain.Product{Name: "Widget", Stock: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Create(ctx, &domain.Product{Name: "widget"}); !errors.Is(err, e.ErrProductAlreadyExists) {
		t.Fatalf("expected ErrProductAlreadyExists, got %v", err)
	}

	found, err := repo.FindByName(ctx, "WIDGET", 0)
	if err != nil || found.ID != widget.ID {
		t.Fatalf("FindByName: %+v, %v", found, err)
	}

	if _, err := repo.Create(ctx, &domain.Product{Name: "100% cotton"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := repo.Search(ctx, "0%")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Name != "100% cotton" {
		t.Fatalf("unexpected search result: %+v", res)
	}

	query := usecase.NewProductQuery(&usecase.ListProductsReq{Sort: "name", Order: "asc"})
	total, err := repo.Count(ctx, query.Filter)
	if err != nil || total != 2 {
		t.Fatalf("Count: %d, %v", total, err)
	}
	page, err := repo.List(ctx, query)
	if err != nil || len(page) != 2 || page[0].Name != "100% cotton" {
		t.Fatalf("List: %+v, %v", page, err)
	}

	if err := repo.Delete(ctx, widget.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, widget.ID); !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestNestedHistoryRollbackPostgres(t *testing.T) {
	pg := newTestDB(t)
	ctx := context.Background()
	products := NewProductRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.ProductConverterImpl{})
	history := NewHistoryRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.InventoryHistoryConverterImpl{})
	trManager := manager.Must(trmpgx.NewDefaultFactory(pg.Pool))

	p, err := products.Create(ctx, &domain.Product{Name: "Widget", Stock: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = trManager.Do(ctx, func(ctx context.Context) error {
		current, err := products.GetByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}

		current.Stock = 2
		if _, err := products.Update(ctx, current); err != nil {
			return err
		}

		_ = trManager.DoWithSettings(ctx, tr.Nested(), func(ctx context.Context) error {
			if _, err := history.Create(ctx, domain.NewInventoryHistoryEntry(p.ID, 10, 2, "", time.Now())); err != nil {
				return err
			}
			return errors.New("publish failed")
		})

		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	got, err := products.GetByID(ctx, p.ID)
	if err != nil || got.Stock != 2 {
		t.Fatalf("expected committed stock 2: %+v, %v", got, err)
	}

	entries, err := history.ListByProduct(ctx, p.ID)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no history after savepoint rollback: %+v, %v", entries, err)
	}
}

func newProductUC(pg *postgres.PgDatabase) *usecase.ProductUseCase {
	getter := trmpgx.DefaultCtxGetter

	return usecase.NewProductUC(
		NewProductRepo(pg.Pool, getter, converter.ProductConverterImpl{}),
		NewHistoryRepo(pg.Pool, getter, converter.InventoryHistoryConverterImpl{}),
		NewOutboxEventRepo(pg.Pool, getter, converter.OutboxEventConverterImpl{}),
		kafka.NewProtoEncoder(),
		manager.Must(trmpgx.NewDefaultFactory(pg.Pool)),
		nop.NewCacheRepo(),
		logger.NewDiscard(),
	)
}

func TestListProductsHugePagePostgres(t *testing.T) {
	pg := newTestDB(t)
	ctx := context.Background()
	repo := NewProductRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.ProductConverterImpl{})
	if _, err := repo.Create(ctx, &domain.Product{Name: "Widget", Stock: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := newProductUC(pg).ListProducts(ctx, &usecase.ListProductsReq{Page: math.MaxInt, PageSize: 10})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(res.Products) != 0 || res.Pagination.TotalItems != 1 || res.Pagination.HasNextPage {
		t.Fatalf("expected empty page, got %d products, pagination %+v", len(res.Products), res.Pagination)
	}
}

func TestConcurrentUpdatesPostgres(t *testing.T) {
	const workers = 20

	pg := newTestDB(t)
	ctx := context.Background()
	products := NewProductRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.ProductConverterImpl{})
	history := NewHistoryRepo(pg.Pool, trmpgx.DefaultCtxGetter, converter.InventoryHistoryConverterImpl{})
	uc := newProductUC(pg)

	p, err := products.Create(ctx, &domain.Product{Name: "Widget", Stock: 1000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(stock int64) {
			defer wg.Done()
			_, err := uc.UpdateProduct(ctx, &usecase.UpdateProductReq{
				ID:           p.ID,
				ProductInput: usecase.ProductInput{Name: "Widget", Stock: stock},
				ChangedBy:    fmt.Sprintf("worker-%d", stock),
			})
			errs <- err
		}(int64(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateProduct: %v", err)
		}
	}

	entries, err := history.ListByProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProduct: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("expected %d history entries, got %d", workers, len(entries))
	}

	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.OldQuantity]; dup {
			t.Fatalf("old_quantity %d read by two updates", entry.OldQuantity)
		}
		seen[entry.OldQuantity] = struct{}{}
	}
	if _, ok := seen[1000]; !ok {
		t.Fatalf("no update started from the initial stock: %+v", entries)
	}
}
