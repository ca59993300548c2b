// Package services содержит логику покупки пакетов кредитов.
//
// Покупка двухшаговая: план сначала откладывается в Redis с TTL,
// затем подтверждается или отменяется отдельным запросом. Начисление
// кредитов выполняет хранилище вместе со вставкой записи о покупке.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/models"
)

var (
	// ErrUnknownPlan — план отсутствует в прайс-листе студии.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrNoPendingPlan — у пользователя нет отложенного плана.
	ErrNoPendingPlan = errors.New("no pending plan")
	// ErrUnknownAction — действие подтверждения не confirm и не cancel.
	ErrUnknownAction = errors.New("unknown action")
)

// Действия второго шага покупки.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// PurchaseRepository определяет методы хранилища, нужные покупкам.
type PurchaseRepository interface {
	// CreatePurchaseWithGrant атомарно записывает покупку и начисляет кредиты.
	CreatePurchaseWithGrant(ctx context.Context, userUID, planName string, credits int) (int, int, error)
	// ListPurchases возвращает покупки пользователя, новые первыми.
	ListPurchases(ctx context.Context, userUID string) ([]*models.Purchase, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PurchaseService реализует двухшаговую покупку пакетов.
type PurchaseService struct {
	repo  PurchaseRepository
	cache Cache
	plans map[string]int
	ttl   time.Duration
	log   *slog.Logger
}

// NewPurchaseService создает новый экземпляр PurchaseService.
// plans — прайс-лист студии: имя плана -> количество кредитов.
func NewPurchaseService(repo PurchaseRepository, cache Cache, plans map[string]int, ttl time.Duration, log *slog.Logger) *PurchaseService {
	return &PurchaseService{
		repo:  repo,
		cache: cache,
		plans: plans,
		ttl:   ttl,
		log:   log,
	}
}

// Plans возвращает прайс-лист студии.
func (s *PurchaseService) Plans() map[string]int {
	return s.plans
}

func pendingPlanCacheKey(userUID string) string {
	return fmt.Sprintf("pendingplan:%s", userUID)
}

// Stage откладывает план для пользователя. Повторный вызов
// заменяет ранее отложенный план.
func (s *PurchaseService) Stage(ctx context.Context, userUID, planName string) error {
	if _, ok := s.plans[planName]; !ok {
		return ErrUnknownPlan
	}
	if err := s.cache.Set(pendingPlanCacheKey(userUID), planName, s.ttl); err != nil {
		return fmt.Errorf("services.Stage: %w", err)
	}
	s.log.Info("staged plan", slog.String("plan", planName))
	return nil
}

// Pending возвращает отложенный план пользователя, если он есть.
func (s *PurchaseService) Pending(ctx context.Context, userUID string) (string, bool, error) {
	var planName string
	found, err := s.cache.Get(pendingPlanCacheKey(userUID), &planName)
	if err != nil {
		return "", false, fmt.Errorf("services.Pending: %w", err)
	}
	return planName, found, nil
}

// Confirm завершает второй шаг покупки. При action == confirm записывает
// покупку и начисляет кредиты, при cancel просто снимает отложенный план.
// Возвращает остаток кредитов после начисления (0 при отмене).
func (s *PurchaseService) Confirm(ctx context.Context, userUID, action string) (string, int, error) {
	if action != ActionConfirm && action != ActionCancel {
		return "", 0, ErrUnknownAction
	}

	planName, found, err := s.Pending(ctx, userUID)
	if err != nil {
		return "", 0, err
	}
	if !found {
		return "", 0, ErrNoPendingPlan
	}

	balance := 0
	if action == ActionConfirm {
		// план мог исчезнуть из прайс-листа между шагами;
		// покупка все равно записывается, но с нулем кредитов
		credits := s.plans[planName]
		id, newBalance, err := s.repo.CreatePurchaseWithGrant(ctx, userUID, planName, credits)
		if err != nil {
			return "", 0, err
		}
		balance = newBalance
		s.log.Info("confirmed purchase",
			slog.Int("id", id),
			slog.String("plan", planName),
			slog.Int("credits", credits),
			slog.Int("remaining_credits", balance))
	} else {
		s.log.Info("cancelled pending plan", slog.String("plan", planName))
	}

	if err := s.cache.Invalidate(pendingPlanCacheKey(userUID)); err != nil {
		s.log.Warn("failed to drop pending plan", sl.Err(err))
	}
	return planName, balance, nil
}

// List возвращает историю покупок пользователя.
func (s *PurchaseService) List(ctx context.Context, userUID string) ([]*models.Purchase, error) {
	return s.repo.ListPurchases(ctx, userUID)
}
