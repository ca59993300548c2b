// Package confirm реализует HTTP-обработчик второго шага покупки пакета.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	"github.com/debozouker/zouk-studio/internal/http/response"
	"github.com/debozouker/zouk-studio/internal/lib/sl"
	services "github.com/debozouker/zouk-studio/internal/services/purchase"
)

// Request — входные данные второго шага покупки.
type Request struct {
	Action string `json:"action" validate:"required,oneof=confirm cancel"`
}

// Service описывает интерфейс бизнес-логики подтверждения покупки.
type Service interface {
	Confirm(ctx context.Context, userUID, action string) (string, int, error)
}

// Handler управляет HTTP-запросами второго шага покупки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить или отменить покупку
// @Description Завершает двухшаговую покупку: confirm начисляет кредиты, cancel снимает отложенный план.
// @Tags Purchases
// @Accept  json
// @Produce  json
// @Param request body Request true "Действие: confirm или cancel"
// @Success 200 {object} map[string]any "Покупка завершена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 404 {object} response.ErrorResponse "Нет отложенного плана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /purchases/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.confirm"

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

	planName, balance, err := h.service.Confirm(r.Context(), userUID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoPendingPlan):
			log.Error("no pending plan")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no pending plan"))
		case errors.Is(err, services.ErrUnknownAction):
			log.Error("unknown action", slog.String("action", req.Action))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown action"))
		default:
			log.Error("failed to confirm purchase", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to confirm purchase"))
		}
		return
	}

	if req.Action == services.ActionCancel {
		log.Info("pending plan cancelled", slog.String("plan", planName))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"plan_name": planName,
			"message":   "pending plan cancelled",
		}))
		return
	}

	log.Info("purchase confirmed", slog.String("plan", planName), slog.Int("remaining_credits", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan_name":         planName,
		"remaining_credits": balance,
		"message":           "purchase confirmed",
	}))
}
