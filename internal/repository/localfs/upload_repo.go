// Package localfs хранит временные файлы импорта на локальном диске, когда MinIO выключен.
package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/jimlawless/whereami"
)

type UploadRepo struct {
	dir string
}

// NewUploadRepo создает директорию для файлов, если ее нет.
func NewUploadRepo(dir string) (*UploadRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &UploadRepo{dir: dir}, nil
}

func (u *UploadRepo) Upload(ctx context.Context, upload *domain.Upload, data io.Reader) (string, error) {
	path, err := u.path(upload.Key)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: data}); err != nil {
		f.Close()
		os.Remove(path)
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return upload.Key, nil
}

func (u *UploadRepo) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := u.path(key)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return f, nil
}

// Delete удаляет файл. Отсутствие файла не считается ошибкой.
func (u *UploadRepo) Delete(_ context.Context, key string) error {
	path, err := u.path(key)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// path не позволяет ключу выйти за пределы директории загрузок.
func (u *UploadRepo) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", e.Wrap(key, fs.ErrInvalid)
	}

	return filepath.Join(u.dir, rel), nil
}

// ctxReader прерывает копирование при отмене контекста.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
