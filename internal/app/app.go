package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/category-tree/internal/cfg"
	v1Http "github.com/DRSN-tech/category-tree/internal/delivery/v1/http"
	"github.com/DRSN-tech/category-tree/internal/infrastructure/kafka"
	"github.com/DRSN-tech/category-tree/internal/metrics"
	s3Repo "github.com/DRSN-tech/category-tree/internal/repository/minio"
	"github.com/DRSN-tech/category-tree/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/category-tree/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/category-tree/internal/repository/redis"
	redisConv "github.com/DRSN-tech/category-tree/internal/repository/redis/converter"
	"github.com/DRSN-tech/category-tree/internal/usecase"
	"github.com/DRSN-tech/category-tree/pkg/clients"
	"github.com/DRSN-tech/category-tree/pkg/closer"
	"github.com/DRSN-tech/category-tree/pkg/e"
	"github.com/DRSN-tech/category-tree/pkg/logger"
	"github.com/DRSN-tech/category-tree/pkg/postgres"
	"github.com/DRSN-tech/category-tree/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const metricsNamespace = "category_tree"

// App собирает зависимости сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	worker  *kafka.OutboxWorker
}

// NewApp подключается к внешним системам и собирает usecase и HTTP-сервер.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, logger logger.Logger) (app *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(0),
	}
	defer func() {
		if err != nil {
			if closeErr := a.closer.Close(context.Background()); closeErr != nil {
				logger.Warnf("cleanup after failed start: %v", closeErr)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := initPGDB(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	a.closer.AddSimple("postgres", func() error {
		db.Close()
		return nil
	})

	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.CategoryConverter{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})

	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.AddSimple("redis", redisClient.Close)
	if err := redisClient.Ping(ctx); err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	childrenRepo := redis.NewChildrenRepo(redisClient, redisConv.CategoryConverter{}, cfg.Redis, logger)

	// Интерфейс остаётся nil, если MinIO не настроен: usecase пропускает проверку изображений
	var imageRepo usecase.ImageRepository
	if cfg.Minio.Enabled() {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			logger.Errorf(err, "failed to initialize minio client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
			logger.Errorf(err, "failed to initialize MinIO bucket")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		imageRepo = s3Repo.NewImageRepo(minioClient, cfg.Minio)
	} else {
		logger.Infof("MINIO_ENDPOINT is empty, image checks are disabled")
	}

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddSimple("kafka producer", producer.Close)
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		// Топик может создать брокер при первой записи
		logger.Warnf("failed to ensure kafka topic %s: %v", cfg.Kafka.Topic, err)
	}

	collector := metrics.NewCollector(metricsNamespace)

	categoryUC := usecase.NewCategoryUC(
		categoryRepo,
		outboxRepo,
		childrenRepo,
		imageRepo,
		tr.NewManager(db.Pool),
		collector,
		cfg.Tree,
		logger,
	)

	a.worker = kafka.NewOutboxWorker(outboxRepo, logger, producer, cfg.Kafka.OutboxBatchSize, db.Dsn)
	a.closer.AddSimple("outbox worker", func() error {
		a.worker.Stop()
		return nil
	})

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, collector, logger)
	router.Init(categoryUC, cfg.Tree.DefaultLocale)

	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return a, nil
}

// Run запускает HTTP-сервер и outbox worker и ждёт сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.worker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
