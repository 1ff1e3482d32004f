package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"

	config "github.com/DRSN-tech/inventory-service/internal/cfg"
	v1Grpc "github.com/DRSN-tech/inventory-service/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/inventory-service/internal/delivery/v1/http"
	"github.com/DRSN-tech/inventory-service/internal/infrastructure/auth"
	"github.com/DRSN-tech/inventory-service/internal/infrastructure/kafka"
	"github.com/DRSN-tech/inventory-service/internal/infrastructure/uploads"
	"github.com/DRSN-tech/inventory-service/internal/repository/localfs"
	s3Repo "github.com/DRSN-tech/inventory-service/internal/repository/minio"
	"github.com/DRSN-tech/inventory-service/internal/repository/nop"
	"github.com/DRSN-tech/inventory-service/internal/repository/redis"
	redisConv "github.com/DRSN-tech/inventory-service/internal/repository/redis/converter"
	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/clients"
	"github.com/DRSN-tech/inventory-service/pkg/closer"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
)

const (
	storeHealthInterval = 15 * time.Second
	dependencyTimeout   = 10 * time.Second
)

// App — собранное приложение: HTTP API, служебный gRPC и фоновые воркеры.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	outbox  *kafka.OutboxWorker
	store   *storage

	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp инициализирует зависимости. При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(0),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		a.shutdown()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	store, err := initStorage(a.logger, a.cfg.Storage, a.closer)
	if err != nil {
		return err
	}
	a.store = store

	cacheRepo, err := a.initCache()
	if err != nil {
		return err
	}

	uploadRepo, err := a.initUploadRepo()
	if err != nil {
		return err
	}

	// Фоновые задачи отменяются только после ожидания очистки временных файлов
	a.closer.AddSimple("background context", a.bgCancel)
	uploadsInfra := uploads.NewUploadsInfrastructure(uploadRepo, a.logger, a.bgCtx)
	a.closer.Add("upload cleanup", uploadsInfra.WaitForCleanup)

	encoder := kafka.NewProtoEncoder()
	outboxRepo, err := a.initOutbox()
	if err != nil {
		return err
	}

	productUC := usecase.NewProductUC(store.products, store.history, outboxRepo, encoder, store.trm, cacheRepo, a.logger)
	importUC := usecase.NewImportUC(store.products, uploadsInfra, a.logger, a.cfg.Import.MaxConcurrency)
	authUC := usecase.NewAuthUC(
		store.users,
		auth.NewBcryptHasher(a.cfg.Auth.BcryptCost),
		auth.NewJWTManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL),
		a.logger,
	)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(v1Http.Deps{
		ProductUC:   productUC,
		ImportUC:    importUC,
		AuthUC:      authUC,
		Store:       store.pinger,
		MaxFileSize: a.cfg.Import.MaxFileSize,
		CORSOrigins: a.cfg.Http.CORSAllowedOrigins,
	})
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

// initCache возвращает Redis-кэш, если он включен, иначе заглушку.
func (a *App) initCache() (usecase.CacheRepository, error) {
	if !a.cfg.Redis.Enabled {
		a.logger.Infof("cache: disabled")
		return nop.NewCacheRepo(), nil
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), dependencyTimeout)
	defer cancel()
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return nil, err
	}

	a.logger.Infof("cache: redis %s", a.cfg.Redis.Addr)
	return redis.NewCacheRepo(redisClient, redisConv.ProductInfoConverterImpl{}, a.cfg.Redis, a.logger), nil
}

// initUploadRepo возвращает хранилище временных файлов импорта: MinIO или локальную директорию.
func (a *App) initUploadRepo() (usecase.UploadRepository, error) {
	if !a.cfg.Minio.Enabled {
		repo, err := localfs.NewUploadRepo(a.cfg.Import.UploadDir)
		if err != nil {
			a.logger.Errorf(err, "failed to prepare upload directory")
			return nil, err
		}

		a.logger.Infof("uploads: local directory %s", a.cfg.Import.UploadDir)
		return repo, nil
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), dependencyTimeout)
	defer cancel()
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return nil, err
	}

	a.logger.Infof("uploads: minio %s/%s", a.cfg.Minio.MinioEndpoint, a.cfg.Minio.BucketName)
	return s3Repo.NewUploadRepo(minioClient, a.cfg.Minio), nil
}

// initOutbox поднимает producer и воркер outbox и возвращает репозиторий событий.
// Без Kafka события не записываются.
func (a *App) initOutbox() (usecase.OutboxRepository, error) {
	if !a.cfg.Kafka.Enabled {
		a.logger.Infof("kafka: disabled, stock change events are not recorded")
		return nop.NewOutboxRepo(), nil
	}

	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

	if err := producer.EnsureTopic(dependencyTimeout); err != nil {
		a.logger.Errorf(err, "failed to ensure kafka topic")
		return nil, err
	}

	a.outbox = kafka.NewOutboxWorker(a.store.outbox, a.logger, producer, a.cfg.Kafka.PollInterval, a.cfg.Kafka.BatchSize)
	a.closer.Add("outbox worker", a.outbox.Stop)

	return a.store.outbox, nil
}

// Run запускает серверы и блокируется до сигнала или фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			errCh <- err
		}
	}()
	go a.grpcSrv.WatchStore(a.bgCtx, a.store.pinger, storeHealthInterval)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	if a.outbox != nil {
		a.outbox.Start(a.bgCtx)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	a.shutdown()
	return appErr
}

// shutdown закрывает ресурсы в обратном порядке регистрации с общим таймаутом.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
	} else {
		a.logger.Infof("Application shutdown complete")
	}
	a.bgCancel()
}
