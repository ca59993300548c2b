// Package pending реализует HTTP-обработчик просмотра отложенного плана.
package pending

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отложенной покупки.
type Service interface {
	Pending(ctx context.Context, userUID string) (string, bool, error)
	Plans() map[string]int
}

// Handler управляет HTTP-запросами просмотра отложенного плана.
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
// @Summary Показать отложенный план
// @Description Возвращает план, ожидающий подтверждения покупки, если он есть.
// @Tags Purchases
// @Produce  json
// @Success 200 {object} map[string]any "Отложенный план или его отсутствие"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /purchases/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.pending"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("useruid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	planName, staged, err := h.service.Pending(r.Context(), userUID)
	if err != nil {
		log.Error("failed to read pending plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read pending plan"))
		return
	}

	if !staged {
		log.Info("no pending plan")
		render.JSON(w, r, response.OKWithData(map[string]any{
			"staged": false,
		}))
		return
	}

	log.Info("pending plan found", slog.String("plan", planName))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"staged":    true,
		"plan_name": planName,
		"credits":   h.service.Plans()[planName],
	}))
}
