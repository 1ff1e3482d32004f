package sqlitedb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/repository/converter"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

type UserRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	conv   converter.UserConverter
}

func NewUserRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, conv converter.UserConverter) *UserRepo {
	return &UserRepo{
		db:     db,
		getter: getter,
		conv:   conv,
	}
}

func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
		RETURNING id, username, email, password_hash, created_at
	`

	var model converter.UserModel
	if err := sqlx.GetContext(ctx, u.getter.DefaultTrOrDB(ctx, u.db), &model, query,
		user.Username, user.Email, user.PasswordHash,
	); err != nil {
		if sqliteDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserAlreadyExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}

func (u *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`

	var model converter.UserModel
	if err := sqlx.GetContext(ctx, u.getter.DefaultTrOrDB(ctx, u.db), &model, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(&model), nil
}

func (u *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, u.getter.DefaultTrOrDB(ctx, u.db), &exists,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = ? OR username = ?)", email, username,
	); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}
