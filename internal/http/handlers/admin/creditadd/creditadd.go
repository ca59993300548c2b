// Package creditadd реализует HTTP-обработчик ручного начисления кредита.
package creditadd

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

// Service описывает интерфейс бизнес-логики начисления кредита.
type Service interface {
	AddCredit(ctx context.Context, userUID string) (int, error)
}

// Handler управляет HTTP-запросами на начисление кредитов.
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
// @Summary Начислить кредит
// @Description Начисляет ученику один кредит. Только для администратора.
// @Tags Admin
// @Produce  json
// @Param uid path string true "UID ученика"
// @Success 200 {object} map[string]any "Кредит начислен"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ только администратору"
// @Failure 404 {object} response.ErrorResponse "Ученик не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{uid}/credits/add [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.creditadd"

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

	balance, err := h.service.AddCredit(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Error("user not found", slog.String("useruid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to add credit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to add credit"))
		return
	}

	log.Info("success to add credit", slog.String("useruid", userUID), slog.Int("remaining_credits", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"useruid":           userUID,
		"remaining_credits": balance,
	}))
}
