// Package purchaseremove реализует HTTP-обработчик удаления покупки администратором.
//
// Вместе с покупкой отзываются начисленные ею кредиты, баланс владельца
// не опускается ниже нуля.
package purchaseremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/storage"
)

// Service описывает интерфейс бизнес-логики удаления покупки.
type Service interface {
	RemovePurchase(ctx context.Context, purchaseID int) (string, int, error)
}

// Handler управляет HTTP-запросами на удаление покупок.
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
// @Summary Удалить покупку
// @Description Удаляет покупку и отзывает начисленные ею кредиты. Только для администратора.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID покупки"
// @Success 200 {object} map[string]any "Покупка удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ только администратору"
// @Failure 404 {object} response.ErrorResponse "Покупка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/purchases/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.purchaseremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	userUID, balance, err := h.service.RemovePurchase(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrPurchaseNotFound) {
			log.Error("purchase not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("purchase not found"))
			return
		}
		log.Error("failed to remove purchase", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove purchase"))
		return
	}

	log.Info("success to remove purchase",
		slog.Int("id", id),
		slog.String("useruid", userUID),
		slog.Int("remaining_credits", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"useruid":           userUID,
		"remaining_credits": balance,
		"message":           "purchase removed",
	}))
}
