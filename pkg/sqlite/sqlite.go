// Package sqlite открывает однофайловую базу SQLite и применяет к ней миграции.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/DRSN-tech/inventory-service/db"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// Database инкапсулирует подключение к SQLite.
type Database struct {
	DB   *sqlx.DB
	path string
}

// DSN включает внешние ключи (для каскадного удаления) и ожидание блокировки.
func DSN(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")

	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

// Open открывает базу по пути к файлу.
// Одно соединение сериализует все записи, поэтому чтение старого остатка и обновление не пересекаются.
func Open(path string) (*Database, error) {
	const op = "sqlite.Open"

	conn, err := sqlx.Open(driverName, DSN(path))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, e.Wrap(op, err)
	}

	return &Database{DB: conn, path: path}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return e.Wrap("sqlite.Ping", err)
	}

	return nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations применяет ожидающие миграции через отдельное соединение.
func (d *Database) RunMigrations(logger logger.Logger) error {
	const op = "sqlite.RunMigrations"

	source, err := iofs.New(db.SQLiteMigrations, db.SQLiteMigrationsDir)
	if err != nil {
		return e.Wrap(op, err)
	}

	sqlDb, err := sql.Open(driverName, DSN(d.path))
	if err != nil {
		return e.Wrap(op, err)
	}
	defer sqlDb.Close()

	driver, err := sqlite3.WithInstance(sqlDb, &sqlite3.Config{})
	if err != nil {
		return e.Wrap(op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return e.Wrap(op, err)
	}

	logger.Infof("migrations applied successfully")
	return nil
}
