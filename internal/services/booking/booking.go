// Package services содержит бизнес-логику бронирования занятий.
//
// Порядок проверок при бронировании и отмене фиксирован: сначала валидность
// слота, затем его положение во времени, затем состояние хранилища.
// Сами изменения (строка бронирования + кредит) выполняет хранилище
// в одной транзакции.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/lib/timetable"
	"github.com/debozouker/zouk-studio/internal/models"
)

// Ошибки календарных проверок. Ошибки состояния хранилища
// (дубль брони, нехватка кредитов, отсутствие брони) приходят из storage.
var (
	// ErrInvalidSlot — пара (дата, время) не разбирается в момент занятия.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrPastSlot — занятие уже началось или прошло.
	ErrPastSlot = errors.New("slot is not in the future")
	// ErrTooLateToCancel — до начала занятия осталось меньше дедлайна отмены.
	ErrTooLateToCancel = errors.New("too late to cancel")
)

// BookingRepository определяет методы хранилища, нужные бронированию.
type BookingRepository interface {
	// CreateBookingWithDebit атомарно создает бронь и списывает кредит.
	CreateBookingWithDebit(ctx context.Context, userUID, date, tm string) (int, int, error)
	// RemoveBookingWithRefund атомарно удаляет бронь и возвращает кредит.
	RemoveBookingWithRefund(ctx context.Context, userUID, date, tm string) (int, error)
	// FindBooking возвращает бронь пользователя для слота.
	FindBooking(ctx context.Context, userUID, date, tm string) (*models.Booking, error)
	// ListBookings возвращает брони пользователя по возрастанию даты и времени.
	ListBookings(ctx context.Context, userUID string) ([]*models.Booking, error)
	// GetRemainingCredits возвращает остаток кредитов пользователя.
	GetRemainingCredits(ctx context.Context, userUID string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// BookingService реализует бронирование и отмену занятий.
type BookingService struct {
	repo  BookingRepository
	cache Cache
	cal   *timetable.Calendar
	log   *slog.Logger
}

// NewBookingService создает новый экземпляр BookingService.
func NewBookingService(repo BookingRepository, cache Cache, cal *timetable.Calendar, log *slog.Logger) *BookingService {
	return &BookingService{
		repo:  repo,
		cache: cache,
		cal:   cal,
		log:   log,
	}
}

// Calendar возвращает календарь студии.
func (s *BookingService) Calendar() *timetable.Calendar {
	return s.cal
}

func bookingsCacheKey(userUID string) string {
	return fmt.Sprintf("bookings:%s", userUID)
}

// Book бронирует слот (date, tm) для пользователя в момент now.
// Возвращает остаток кредитов после списания.
func (s *BookingService) Book(ctx context.Context, userUID, date, tm string, now time.Time) (int, error) {
	slot, err := s.cal.ParseSlot(date, tm)
	if err != nil {
		return 0, ErrInvalidSlot
	}
	if !slot.After(now) {
		return 0, ErrPastSlot
	}

	id, balance, err := s.repo.CreateBookingWithDebit(ctx, userUID, date, tm)
	if err != nil {
		return 0, err
	}
	s.log.Info("booked class",
		slog.Int("id", id),
		slog.String("slot", timetable.SlotKey(date, tm)),
		slog.Int("remaining_credits", balance))

	if err := s.cache.Invalidate(bookingsCacheKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate bookings cache", sl.Err(err))
	}
	return balance, nil
}

// Cancel отменяет бронь слота (date, tm) в момент now и возвращает кредит.
// Возвращает остаток кредитов после возврата.
func (s *BookingService) Cancel(ctx context.Context, userUID, date, tm string, now time.Time) (int, error) {
	if _, err := s.repo.FindBooking(ctx, userUID, date, tm); err != nil {
		return 0, err
	}
	// сохраненная пара могла бы не разобраться только при порче данных
	if _, err := s.cal.ParseSlot(date, tm); err != nil {
		return 0, ErrInvalidSlot
	}
	if !s.cal.IsCancellable(date, tm, now) {
		return 0, ErrTooLateToCancel
	}

	balance, err := s.repo.RemoveBookingWithRefund(ctx, userUID, date, tm)
	if err != nil {
		return 0, err
	}
	s.log.Info("cancelled class",
		slog.String("slot", timetable.SlotKey(date, tm)),
		slog.Int("remaining_credits", balance))

	if err := s.cache.Invalidate(bookingsCacheKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate bookings cache", sl.Err(err))
	}
	return balance, nil
}

// List возвращает брони пользователя, используя кеш или хранилище.
func (s *BookingService) List(ctx context.Context, userUID string) ([]*models.Booking, error) {
	var result []*models.Booking
	cacheKey := bookingsCacheKey(userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read bookings cache", sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListBookings(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache bookings", sl.Err(err))
	}
	return result, nil
}

// Timetable собирает расписание студии для пользователя: все даты и времена,
// занятые им слоты, признак возможности отмены по каждому слоту
// и остаток кредитов.
func (s *BookingService) Timetable(ctx context.Context, userUID string, now time.Time) (*models.TimetableView, error) {
	bookings, err := s.List(ctx, userUID)
	if err != nil {
		return nil, err
	}
	balance, err := s.repo.GetRemainingCredits(ctx, userUID)
	if err != nil {
		return nil, err
	}

	dates := s.cal.SlotDates()
	times := s.cal.SlotTimes()

	view := &models.TimetableView{
		Dates:            make([]models.TimetableDate, 0, len(dates)),
		Times:            times,
		Booked:           make([]string, 0, len(bookings)),
		Cancellable:      make(map[string]bool, len(dates)*len(times)),
		RemainingCredits: balance,
		CutoffHours:      s.cal.Cutoff().Hours(),
	}

	for _, b := range bookings {
		view.Booked = append(view.Booked, timetable.SlotKey(b.Date, b.Time))
	}
	for _, date := range dates {
		pretty := date
		if d, err := time.ParseInLocation(timetable.DateLayout, date, s.cal.Location()); err == nil {
			pretty = d.Format("02-01-2006")
		}
		view.Dates = append(view.Dates, models.TimetableDate{Raw: date, Pretty: pretty})

		for _, tm := range times {
			view.Cancellable[timetable.SlotKey(date, tm)] = s.cal.IsCancellable(date, tm, now)
		}
	}
	return view, nil
}
