package uploads

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/internal/infrastructure"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/jitter"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/google/uuid"
)

const (
	keyPrefix         = "imports"
	cleanupTimeout    = 30 * time.Second
	cleanupAttempts   = 3
	cleanupBaseDelay  = time.Second
	cleanupMaxBackoff = 8 * time.Second
)

// UploadsInfrastructure сохраняет временные файлы импорта и удаляет их в фоне.
type UploadsInfrastructure struct {
	repo        usecase.UploadRepository
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	baseDelay   time.Duration
}

func NewUploadsInfrastructure(repo usecase.UploadRepository, logger logger.Logger, shutdownCtx context.Context) *UploadsInfrastructure {
	return &UploadsInfrastructure{
		repo:        repo,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		baseDelay:   cleanupBaseDelay,
	}
}

// Store сохраняет файл под уникальным ключом imports/<uuid>.<ext>.
func (u *UploadsInfrastructure) Store(ctx context.Context, req *usecase.StoreUploadReq) (*domain.Upload, error) {
	const op = "UploadsInfrastructure.Store"

	size := req.Size
	if size <= 0 {
		size = -1
	}

	key := fmt.Sprintf("%s/%s.%s", keyPrefix, uuid.NewString(), infrastructure.GetExtensionFromMIME(req.ContentType, req.Name))
	upload := domain.NewUpload(key, size, req.ContentType)

	storedKey, err := u.repo.Upload(ctx, upload, req.Data)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	upload.Key = storedKey

	return upload, nil
}

func (u *UploadsInfrastructure) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := u.repo.Open(ctx, key)
	if err != nil {
		return nil, e.Wrap("UploadsInfrastructure.Open", err)
	}

	return rc, nil
}

// Release запускает фоновое удаление файла.
func (u *UploadsInfrastructure) Release(key string) {
	if key == "" {
		return
	}

	u.wg.Add(1)
	go u.cleanup(key)
}

// cleanup удаляет файл с экспоненциальной задержкой и jitter.
func (u *UploadsInfrastructure) cleanup(key string) {
	defer u.wg.Done()
	const op = "UploadsInfrastructure.cleanup"

	ctx, cancel := context.WithTimeout(u.shutdownCtx, cleanupTimeout)
	defer cancel()

	for attempt := 0; attempt < cleanupAttempts; attempt++ {
		err := u.repo.Delete(ctx, key)
		if err == nil {
			u.logger.Debugf("%s: upload removed, key=%s", op, key)
			return
		}

		u.logger.Warnf("%s: attempt %d failed, key=%s: %v", op, attempt+1, key, err)
		if attempt == cleanupAttempts-1 {
			break
		}

		select {
		case <-time.After(jitter.ExponentialBackoff(u.baseDelay, cleanupMaxBackoff, attempt, jitter.DefaultJitter)):
		case <-ctx.Done():
			u.logger.Warnf("%s: interrupted by shutdown, key=%s", op, key)
			return
		}
	}

	u.logger.Warnf("%s: giving up, key=%s", op, key)
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (u *UploadsInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("upload cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
