// Package stage реализует HTTP-обработчик первого шага покупки пакета.
//
// Выбранный план откладывается с TTL; покупка завершается отдельным
// запросом подтверждения.
package stage

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

// Request — входные данные первого шага покупки.
type Request struct {
	PlanName string `json:"plan_name" validate:"required"`
}

// Service описывает интерфейс бизнес-логики откладывания плана.
type Service interface {
	Stage(ctx context.Context, userUID, planName string) error
	Plans() map[string]int
}

// Handler управляет HTTP-запросами первого шага покупки.
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
// @Summary Выбрать пакет кредитов
// @Description Откладывает выбранный план для текущего ученика. Покупка завершается подтверждением.
// @Tags Purchases
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя плана"
// @Success 200 {object} map[string]any "План отложен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестный план"
// @Failure 401 {object} response.ErrorResponse "Ученик не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /purchases/stage [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.stage"

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

	if err := h.service.Stage(r.Context(), userUID, req.PlanName); err != nil {
		if errors.Is(err, services.ErrUnknownPlan) {
			log.Error("unknown plan", slog.String("plan", req.PlanName))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
			return
		}
		log.Error("failed to stage plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to stage plan"))
		return
	}

	log.Info("plan staged", slog.String("plan", req.PlanName))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan_name": req.PlanName,
		"credits":   h.service.Plans()[req.PlanName],
		"message":   "plan staged, confirm to complete the purchase",
	}))
}
