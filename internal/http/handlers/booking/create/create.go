// Package create реализует HTTP-обработчик бронирования занятия.
//
// Handler принимает JSON-запрос со слотом (дата и время), валидирует его,
// извлекает uid ученика из контекста и вызывает бизнес-логику бронирования.
// Слот бронируется вместе со списанием одного кредита; ошибки
// превращаются в HTTP-статусы по своему типу.
package create

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

// Request — входные данные для бронирования занятия.
type Request struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Book(ctx context.Context, userUID, date, tm string, now time.Time) (int, error)
}

// Handler управляет HTTP-запросами на бронирование занятий.
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
// @Summary Забронировать занятие
// @Description Бронирует слот для текущего ученика и списывает один кредит.
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Param request body Request true "Слот занятия"
// @Success 200 {object} map[string]any "Успешное бронирование"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или слот вне расписания"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь уже удален"
// @Failure 409 {object} response.ErrorResponse "Слот уже занят или нет кредитов"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bookings [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.create"

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

	balance, err := h.service.Book(r.Context(), userUID, req.Date, req.Time, h.now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSlot):
			log.Error("slot is not on the studio timetable", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("slot is not on the studio timetable"))
		case errors.Is(err, services.ErrPastSlot):
			log.Error("slot is in the past", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("slot is in the past"))
		case errors.Is(err, storage.ErrDuplicateBooking):
			log.Error("slot already booked", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("slot already booked"))
		case errors.Is(err, storage.ErrInsufficientCredit):
			log.Error("no remaining credits", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("no remaining credits"))
		case errors.Is(err, storage.ErrUserNotFound):
			// токен пережил удаление пользователя
			log.Error("user not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to book class", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to book class"))
		}
		return
	}

	log.Info("success to book class", slog.Int("remaining_credits", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"date":              req.Date,
		"time":              req.Time,
		"remaining_credits": balance,
	}))
}
