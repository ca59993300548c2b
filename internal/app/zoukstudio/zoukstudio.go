// Package zoukstudio собирает основное HTTP-приложение студии:
// хранилище, миграции, кеш, календарь занятий, сервисы и маршруты.
package zoukstudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/debozouker/zouk-studio/internal/cache"
	"github.com/debozouker/zouk-studio/internal/config"
	"github.com/debozouker/zouk-studio/internal/lib/jwt"
	"github.com/debozouker/zouk-studio/internal/lib/timetable"
	"github.com/debozouker/zouk-studio/internal/migrations"
	adminservice "github.com/debozouker/zouk-studio/internal/services/admin"
	authservice "github.com/debozouker/zouk-studio/internal/services/auth"
	bookingservice "github.com/debozouker/zouk-studio/internal/services/booking"
	purchaseservice "github.com/debozouker/zouk-studio/internal/services/purchase"
	"github.com/debozouker/zouk-studio/internal/storage"
)

// App представляет основное HTTP-приложение студии.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New создает приложение: подключает хранилище и кеш, прогоняет миграции,
// строит календарь занятий из конфига и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	cal, err := timetable.New(cfg.Studio.Timezone, cfg.Studio.AnchorDate,
		cfg.Studio.ClassWeekday, cfg.Studio.WeeksAhead,
		cfg.Studio.SlotTimes, cfg.Studio.CancelCutoff)
	if err != nil {
		return nil, fmt.Errorf("invalid studio timetable: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, cfg.Studio.AdminUsername)
	bookingService := bookingservice.NewBookingService(db, cacheRedis, cal, logger)
	purchaseService := purchaseservice.NewPurchaseService(db, cacheRedis,
		cfg.Studio.Plans, cfg.Studio.PendingPlanTTL, logger)
	adminService := adminservice.NewAdminService(db, cacheRedis, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, jwtMaker, db,
		authService, bookingService, purchaseService, adminService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и дожидается либо его остановки,
// либо отмены контекста с корректным завершением.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
