// Package creditremove реализует HTTP-обработчик ручного списания кредита.
//
// Списание при нулевом балансе не ошибка: баланс остается нулевым,
// ответ помечает операцию как не изменившую ничего.
package creditremove

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

// Service описывает интерфейс бизнес-логики списания кредита.
type Service interface {
	RemoveCredit(ctx context.Context, userUID string) (int, bool, error)
}

// Handler управляет HTTP-запросами на списание кредитов.
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
// @Summary Списать кредит
// @Description Списывает у ученика один кредит, не опуская баланс ниже нуля. Только для администратора.
// @Tags Admin
// @Produce  json
// @Param uid path string true "UID ученика"
// @Success 200 {object} map[string]any "Кредит списан либо баланс уже нулевой"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ только администратору"
// @Failure 404 {object} response.ErrorResponse "Ученик не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{uid}/credits/remove [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.creditremove"

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

	balance, changed, err := h.service.RemoveCredit(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Error("user not found", slog.String("useruid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to remove credit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove credit"))
		return
	}

	log.Info("success to remove credit",
		slog.String("useruid", userUID),
		slog.Int("remaining_credits", balance),
		slog.Bool("changed", changed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"useruid":           userUID,
		"remaining_credits": balance,
		"changed":           changed,
	}))
}
