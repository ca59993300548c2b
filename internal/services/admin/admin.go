// Package services содержит административные операции над пользователями,
// покупками и кредитами.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/models"
)

// AdminRepository определяет методы хранилища, нужные администратору.
type AdminRepository interface {
	// ListUsers возвращает всех пользователей по алфавиту.
	ListUsers(ctx context.Context) ([]*models.User, error)
	// GetUser возвращает пользователя по uid.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// RemoveUser удаляет пользователя вместе с его бронями и покупками.
	RemoveUser(ctx context.Context, userUID string) error
	// RemovePurchaseWithRevoke удаляет покупку и списывает ее кредиты,
	// не опуская баланс ниже нуля. Возвращает uid владельца и новый баланс.
	RemovePurchaseWithRevoke(ctx context.Context, purchaseID int) (string, int, error)
	// AddCredit начисляет пользователю один кредит.
	AddCredit(ctx context.Context, userUID string) (int, error)
	// RemoveCredit списывает один кредит, если баланс положителен.
	// Второе значение — false, если списывать было нечего.
	RemoveCredit(ctx context.Context, userUID string) (int, bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AdminService реализует операции администратора студии.
type AdminService struct {
	repo  AdminRepository
	cache Cache
	log   *slog.Logger
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(repo AdminRepository, cache Cache, log *slog.Logger) *AdminService {
	return &AdminService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListUsers возвращает всех пользователей студии.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// RemoveUser удаляет пользователя со всеми его бронями и покупками.
func (s *AdminService) RemoveUser(ctx context.Context, userUID string) error {
	if err := s.repo.RemoveUser(ctx, userUID); err != nil {
		return err
	}
	s.log.Info("removed user", slog.String("useruid", userUID))

	if err := s.cache.Invalidate(fmt.Sprintf("bookings:%s", userUID)); err != nil {
		s.log.Warn("failed to invalidate bookings cache", sl.Err(err))
	}
	if err := s.cache.Invalidate(fmt.Sprintf("pendingplan:%s", userUID)); err != nil {
		s.log.Warn("failed to drop pending plan", sl.Err(err))
	}
	return nil
}

// RemovePurchase удаляет покупку и отзывает начисленные ею кредиты.
// Возвращает uid владельца и его баланс после отзыва.
func (s *AdminService) RemovePurchase(ctx context.Context, purchaseID int) (string, int, error) {
	userUID, balance, err := s.repo.RemovePurchaseWithRevoke(ctx, purchaseID)
	if err != nil {
		return "", 0, err
	}
	s.log.Info("removed purchase",
		slog.Int("id", purchaseID),
		slog.String("useruid", userUID),
		slog.Int("remaining_credits", balance))
	return userUID, balance, nil
}

// AddCredit начисляет пользователю один кредит и возвращает новый баланс.
func (s *AdminService) AddCredit(ctx context.Context, userUID string) (int, error) {
	balance, err := s.repo.AddCredit(ctx, userUID)
	if err != nil {
		return 0, err
	}
	s.log.Info("added credit",
		slog.String("useruid", userUID),
		slog.Int("remaining_credits", balance))
	return balance, nil
}

// RemoveCredit списывает у пользователя один кредит. При нулевом балансе
// ничего не меняет и возвращает changed == false.
func (s *AdminService) RemoveCredit(ctx context.Context, userUID string) (int, bool, error) {
	balance, changed, err := s.repo.RemoveCredit(ctx, userUID)
	if err != nil {
		return 0, false, err
	}
	if changed {
		s.log.Info("removed credit",
			slog.String("useruid", userUID),
			slog.Int("remaining_credits", balance))
	}
	return balance, changed, nil
}
