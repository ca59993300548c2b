// Package timetable реализует HTTP-обработчик расписания студии.
//
// Обработчик возвращает сетку всех дат и времен занятий, брони текущего
// ученика, признак возможности отмены каждого слота и остаток кредитов —
// все, что нужно клиенту для отрисовки календаря.
package timetable

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/models"
)

// Service описывает интерфейс бизнес-логики расписания.
type Service interface {
	Timetable(ctx context.Context, userUID string, now time.Time) (*models.TimetableView, error)
}

// Handler управляет HTTP-запросами на расписание.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Расписание студии
// @Description Возвращает сетку занятий, брони текущего ученика и остаток кредитов.
// @Tags Timetable
// @Produce  json
// @Success 200 {object} map[string]any "Расписание"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /timetable [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.timetable"

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

	view, err := h.service.Timetable(r.Context(), userUID, h.now())
	if err != nil {
		log.Error("failed to build timetable", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to build timetable"))
		return
	}

	log.Info("timetable built", "dates", len(view.Dates))
	render.JSON(w, r, response.OKWithData(view))
}
