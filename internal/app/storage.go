package app

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jimlawless/whereami"

	config "github.com/DRSN-tech/inventory-service/internal/cfg"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/internal/repository/pgdb"
	"github.com/DRSN-tech/inventory-service/internal/repository/sqlitedb"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/closer"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/DRSN-tech/inventory-service/pkg/postgres"
	"github.com/DRSN-tech/inventory-service/pkg/sqlite"
	"github.com/DRSN-tech/inventory-service/pkg/tr"
)

// storage — репозитории и менеджер транзакций выбранного движка.
type storage struct {
	products usecase.ProductRepository
	history  usecase.HistoryRepository
	users    usecase.UserRepository
	outbox   usecase.OutboxRepository
	trm      tr.Manager
	pinger   interface{ Ping(ctx context.Context) error }
}

// initStorage открывает хранилище по STORAGE_DRIVER, применяет миграции и регистрирует закрытие.
func initStorage(log logger.Logger, cfg *config.StorageCfg, cl *closer.Closer) (*storage, error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		return initPostgres(log, cfg.Db, cl)
	case config.StorageSQLite:
		return initSQLite(log, cfg.SQLite, cl)
	default:
		return nil, e.Wrap(cfg.Driver, e.ErrUnknownStorageDriver)
	}
}

func initPostgres(log logger.Logger, cfg *config.PGDBCfg, cl *closer.Closer) (*storage, error) {
	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.AddSimple("postgres", db.Close)

	if err := db.RunMigrations(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	getter := trmpgx.DefaultCtxGetter

	log.Infof("storage: postgres %s:%s/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &storage{
		products: pgdb.NewProductRepo(db.Pool, getter, converter.ProductConverterImpl{}),
		history:  pgdb.NewHistoryRepo(db.Pool, getter, converter.InventoryHistoryConverterImpl{}),
		users:    pgdb.NewUserRepo(db.Pool, getter, converter.UserConverterImpl{}),
		outbox:   pgdb.NewOutboxEventRepo(db.Pool, getter, converter.OutboxEventConverterImpl{}),
		trm:      manager.Must(trmpgx.NewDefaultFactory(db.Pool)),
		pinger:   db,
	}, nil
}

func initSQLite(log logger.Logger, cfg *config.SQLiteCfg, cl *closer.Closer) (*storage, error) {
	db, err := sqlite.Open(cfg.Path)
	if err != nil {
		log.Errorf(err, "failed to open sqlite database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add("sqlite", func(context.Context) error { return db.Close() })

	if err := db.RunMigrations(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	getter := trmsqlx.DefaultCtxGetter

	log.Infof("storage: sqlite %s", cfg.Path)
	return &storage{
		products: sqlitedb.NewProductRepo(db.DB, getter, converter.ProductConverterImpl{}),
		history:  sqlitedb.NewHistoryRepo(db.DB, getter, converter.InventoryHistoryConverterImpl{}),
		users:    sqlitedb.NewUserRepo(db.DB, getter, converter.UserConverterImpl{}),
		outbox:   sqlitedb.NewOutboxEventRepo(db.DB, getter, converter.OutboxEventConverterImpl{}),
		trm:      manager.Must(trmsqlx.NewDefaultFactory(db.DB)),
		pinger:   db,
	}, nil
}
