package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"farmTracker/internal/auth"
	"farmTracker/internal/config"
	"farmTracker/internal/database"
	"farmTracker/internal/handlers"
	"farmTracker/internal/logger"
	"farmTracker/internal/middleware"
	cowinmemory "farmTracker/internal/repository/cow/inmemory"
	cowpostgres "farmTracker/internal/repository/cow/postgres"
	taskinmemory "farmTracker/internal/repository/task/inmemory"
	taskpostgres "farmTracker/internal/repository/task/postgres"
	holdinmemory "farmTracker/internal/repository/verification/inmemory"
	holdredis "farmTracker/internal/repository/verification/redis"
	"farmTracker/internal/service"
	"farmTracker/internal/trace"
	"farmTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	config        *config.Config
	server        *http.Server
	router        *chi.Mux
	tasks         *service.TaskService
	registrations *service.RegistrationService
	worker        *worker.OverdueWorker
	workerCtx     context.Context
	stopWorker    context.CancelFunc
	shutdowns     []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	loc, err := a.config.Location()
	if err != nil {
		return nil, fmt.Errorf("часовой пояс: %w", err)
	}

	tasksRepo, cows, err := a.initRepositories(ctx)
	if err != nil {
		return nil, err
	}

	holds, err := a.initHolds(ctx)
	if err != nil {
		return nil, err
	}

	lookuper := trace.NewMemo(
		trace.NewClient(a.config.Trace.BaseURL, a.config.Trace.APIKey, a.config.Trace.Timeout),
		a.config.Trace.MemoTTL,
	)

	a.tasks = service.NewTaskService(tasksRepo, cows, service.WithLocation(loc))
	a.registrations = service.NewRegistrationService(holds, cows, lookuper,
		service.WithHoldTTL(a.config.Registration.HoldTTL))

	a.initRouter()
	a.initWorker()

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("holds", a.config.Holds.Type),
		zap.String("timezone", loc.String()),
		zap.Bool("worker", a.worker != nil))
	return a, nil
}

func (a *App) initRepositories(ctx context.Context) (service.TaskRepository, service.CowRegistry, error) {
	switch a.config.Repository.Type {
	case "postgres":
		if a.config.Database.MigrateOnStart {
			if err := database.Migrate(a.config.Database.URL); err != nil {
				return nil, nil, fmt.Errorf("миграции: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, a.config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Repository: Закрытие пула PostgreSQL")
			pool.Close()
		})
		return taskpostgres.New(pool), cowpostgres.New(pool), nil
	default:
		logger.Info("Repository: Используется хранилище в памяти")
		return taskinmemory.NewTaskStorage(), cowinmemory.NewCowStorage(), nil
	}
}

func (a *App) initHolds(ctx context.Context) (service.HoldStore, error) {
	if a.config.Holds.Type != "redis" {
		return holdinmemory.NewHoldStore(), nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	store := holdredis.NewHoldStore(client, a.config.Redis.KeyPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.HealthCheck(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к Redis: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Repository: Закрытие соединения с Redis")
		if err := client.Close(); err != nil {
			logger.Warn("Repository: Ошибка закрытия Redis", zap.Error(err))
		}
	})
	logger.Info("Repository: Заявки хранятся в Redis", zap.String("addr", a.config.Redis.Addr))
	return store, nil
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	tokens := auth.NewManager(a.config.Auth.JWTSecret, a.config.Auth.Issuer)
	handlers.Mount(r,
		handlers.NewTaskHandler(a.tasks),
		handlers.NewRegistrationHandler(a.registrations),
		middleware.Auth(tokens))

	a.router = r
}

func (a *App) initWorker() {
	if !a.config.Worker.Enabled {
		return
	}

	interval := a.config.Worker.Interval
	batchSize := a.config.Worker.BatchSize
	a.worker = worker.NewOverdueWorker(a.tasks, a.registrations, &interval, &batchSize)
	// контекст создаётся до запуска горутин, Run и Shutdown только читают поля
	a.workerCtx, a.stopWorker = context.WithCancel(context.Background())
}

// Run запускает воркер и HTTP-сервер; возвращается после остановки сервера
func (a *App) Run() error {
	if a.worker != nil {
		go a.worker.Start(a.workerCtx)
	}

	logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Ошибка HTTP-сервера", err)
		return fmt.Errorf("http сервер: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("Остановка сервера...")

	if a.stopWorker != nil {
		a.stopWorker()
	}

	var serverErr error
	if a.server != nil {
		serverErr = a.server.Shutdown(ctx)
		if serverErr != nil {
			logger.Error("Ошибка остановки HTTP-сервера", serverErr)
		}
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	return serverErr
}

func (a *App) Handler() http.Handler {
	return a.router
}
