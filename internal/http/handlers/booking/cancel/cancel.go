// Package cancel реализует HTTP-обработчик отмены брони занятия.
package cancel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	services "github.com/debozouker/zouk-studio/internal/services/booking"
	"github.com/debozouker/zouk-studio/internal/storage"
)

// Request — входные данные для отмены брони.
type Request struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// Service описывает интерфейс бизнес-логики отмены брони.
type Service interface {
	Cancel(ctx context.Context, userUID, date, tm string, now time.Time) (int, error)
}

// Handler управляет HTTP-запросами на отмену броней.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	validate := validator.New()
	// в validator v9 нет встроенного тега datetime, разбираем по layout из параметра
	_ = validate.RegisterValidation("datetime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(fl.Param(), fl.Field().String())
		return err == nil
	})
	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
		now:      time.Now,
	}
}

// ServeHTTP godoc
// @Summary Отменить бронь занятия
// @Description Отменяет бронь текущего ученика и возвращает кредит.
// @Description Отмена возможна не позднее чем за час до начала занятия.
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Param request body Request true "Слот занятия"
// @Success 200 {object} map[string]any "Успешная отмена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 404 {object} response.ErrorResponse "Бронь не найдена"
// @Failure 409 {object} response.ErrorResponse "Отменять уже поздно"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bookings/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("useruid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	balance, err := h.service.Cancel(r.Context(), userUID, req.Date, req.Time, h.now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBookingNotFound):
			log.Error("booking not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
		case errors.Is(err, services.ErrInvalidSlot):
			log.Error("slot is not on the studio timetable", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("slot is not on the studio timetable"))
		case errors.Is(err, services.ErrTooLateToCancel):
			log.Error("too late to cancel", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("too late to cancel"))
		default:
			log.Error("failed to cancel booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to cancel booking"))
		}
		return
	}

	log.Info("success to cancel booking", slog.Int("remaining_credits", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"date":              req.Date,
		"time":              req.Time,
		"remaining_credits": balance,
	}))
}
