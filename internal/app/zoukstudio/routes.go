// Package zoukstudio предоставляет маршруты для основного приложения.
package zoukstudio

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/debozouker/zouk-studio/internal/http/handlers/admin/creditadd"
	"github.com/debozouker/zouk-studio/internal/http/handlers/admin/creditremove"
	"github.com/debozouker/zouk-studio/internal/http/handlers/admin/purchaseremove"
	"github.com/debozouker/zouk-studio/internal/http/handlers/admin/userlist"
	"github.com/debozouker/zouk-studio/internal/http/handlers/admin/userremove"
	"github.com/debozouker/zouk-studio/internal/http/handlers/auth/login"
	"github.com/debozouker/zouk-studio/internal/http/handlers/auth/register"
	bookingcancel "github.com/debozouker/zouk-studio/internal/http/handlers/booking/cancel"
	bookingcreate "github.com/debozouker/zouk-studio/internal/http/handlers/booking/create"
	bookinglist "github.com/debozouker/zouk-studio/internal/http/handlers/booking/list"
	"github.com/debozouker/zouk-studio/internal/http/handlers/health"
	purchaseconfirm "github.com/debozouker/zouk-studio/internal/http/handlers/purchase/confirm"
	purchaselist "github.com/debozouker/zouk-studio/internal/http/handlers/purchase/list"
	purchasepending "github.com/debozouker/zouk-studio/internal/http/handlers/purchase/pending"
	purchasestage "github.com/debozouker/zouk-studio/internal/http/handlers/purchase/stage"
	timetablehandler "github.com/debozouker/zouk-studio/internal/http/handlers/timetable"
	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	"github.com/debozouker/zouk-studio/internal/lib/jwt"
	adminservice "github.com/debozouker/zouk-studio/internal/services/admin"
	authservice "github.com/debozouker/zouk-studio/internal/services/auth"
	bookingservice "github.com/debozouker/zouk-studio/internal/services/booking"
	purchaseservice "github.com/debozouker/zouk-studio/internal/services/purchase"
	"github.com/debozouker/zouk-studio/internal/storage"

	"log/slog"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, db *storage.Storage,
	authService *authservice.AuthService,
	bookingService *bookingservice.BookingService,
	purchaseService *purchaseservice.PurchaseService,
	adminService *adminservice.AdminService,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/timetable", timetablehandler.New(logger, bookingService).ServeHTTP)
			r.Post("/bookings", bookingcreate.New(logger, bookingService).ServeHTTP)
			r.Get("/bookings", bookinglist.New(logger, bookingService).ServeHTTP)
			r.Post("/bookings/cancel", bookingcancel.New(logger, bookingService).ServeHTTP)
			r.Post("/purchases/stage", purchasestage.New(logger, purchaseService).ServeHTTP)
			r.Post("/purchases/confirm", purchaseconfirm.New(logger, purchaseService).ServeHTTP)
			r.Get("/purchases/pending", purchasepending.New(logger, purchaseService).ServeHTTP)
			r.Get("/purchases", purchaselist.New(logger, purchaseService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Get("/admin/users", userlist.New(logger, adminService).ServeHTTP)
				r.Delete("/admin/users/{uid}", userremove.New(logger, adminService).ServeHTTP)
				r.Post("/admin/users/{uid}/credits/add", creditadd.New(logger, adminService).ServeHTTP)
				r.Post("/admin/users/{uid}/credits/remove", creditremove.New(logger, adminService).ServeHTTP)
				r.Delete("/admin/purchases/{id}", purchaseremove.New(logger, adminService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
