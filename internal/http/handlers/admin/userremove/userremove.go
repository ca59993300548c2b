// Package userremove реализует HTTP-обработчик удаления ученика администратором.
package userremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/storage"
)

// Service описывает интерфейс бизнес-логики удаления ученика.
type Service interface {
	RemoveUser(ctx context.Context, userUID string) error
}

// Handler управляет HTTP-запросами на удаление учеников.
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
// @Summary Удалить ученика
// @Description Удаляет ученика вместе с его бронями и покупками. Только для администратора.
// @Tags Admin
// @Produce  json
// @Param uid path string true "UID ученика"
// @Success 200 {object} map[string]any "Ученик удален"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ только администратору"
// @Failure 404 {object} response.ErrorResponse "Ученик не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if userUID == "" {
		log.Error("missing uid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing uid"))
		return
	}

	if err := h.service.RemoveUser(r.Context(), userUID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Error("user not found", slog.String("useruid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to remove user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove user"))
		return
	}

	log.Info("success to remove user", slog.String("useruid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"useruid": userUID,
		"message": "user removed",
	}))
}
