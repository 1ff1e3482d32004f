package minio

import (
	"context"
	"io"

	"github.com/DRSN-tech/inventory-service/internal/cfg"
	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// UploadRepo хранит временные файлы импорта в MinIO.
type UploadRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewUploadRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *UploadRepo {
	return &UploadRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает файл в MinIO и возвращает ключ объекта.
func (u *UploadRepo) Upload(ctx context.Context, upload *domain.Upload, data io.Reader) (string, error) {
	info, err := u.mc.PutObject(ctx, u.cfg.BucketName, upload.Key, data, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Open возвращает поток чтения объекта. Ошибка отсутствия объекта проявится при первом чтении.
func (u *UploadRepo) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := u.mc.GetObject(ctx, u.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return obj, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (u *UploadRepo) Delete(ctx context.Context, key string) error {
	if err := u.mc.RemoveObject(ctx, u.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
