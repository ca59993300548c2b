// Package userlist реализует HTTP-обработчик списка учеников для администратора.
package userlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/models"
)

// Service описывает интерфейс бизнес-логики списка учеников.
type Service interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Handler управляет HTTP-запросами на список учеников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список учеников
// @Description Возвращает всех учеников студии с балансами кредитов. Только для администратора.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Список учеников"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ только администратору"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list users"))
		return
	}

	log.Info("list users", "count", len(res))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count": len(res),
		"users":      res,
	}))
}
