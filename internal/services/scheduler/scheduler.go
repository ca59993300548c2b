// Package services содержит планировщик напоминаний о завтрашних занятиях.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/debozouker/zouk-studio/internal/lib/sl"
	"github.com/debozouker/zouk-studio/internal/lib/timetable"
	"github.com/debozouker/zouk-studio/internal/models"
	"github.com/debozouker/zouk-studio/internal/rabbitmq"
)

// BookingRepository определяет методы хранилища, нужные планировщику.
type BookingRepository interface {
	// FindBookingsForDate возвращает брони на дату вместе с данными учеников.
	FindBookingsForDate(ctx context.Context, date string) ([]*models.BookingReminder, error)
}

// SchedulerService периодически ищет брони на завтра
// и публикует напоминания в очередь.
type SchedulerService struct {
	repo BookingRepository
	cal  *timetable.Calendar
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo BookingRepository, cal *timetable.Calendar, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		cal:  cal,
		log:  log,
	}
}

// FindBookingsDueTomorrow запускает цикл поиска завтрашних броней.
// Первый проход выполняется сразу, дальше каждые 12 часов.
func (s *SchedulerService) FindBookingsDueTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.runFindBookingsDueTomorrow(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runFindBookingsDueTomorrow(ctx, channel)
		}
	}
}

func (s *SchedulerService) runFindBookingsDueTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find bookings due tomorrow")

	// завтра считается по часовому поясу студии
	tomorrow := time.Now().In(s.cal.Location()).AddDate(0, 0, 1).Format(timetable.DateLayout)
	reminders, err := s.repo.FindBookingsForDate(ctx, tomorrow)
	if err != nil {
		s.log.Error("failed to find bookings", sl.Err(err))
		return
	}
	if len(reminders) == 0 {
		s.log.Info("no bookings due tomorrow")
		return
	}
	s.log.Info("found bookings due tomorrow", "count", len(reminders))
	for _, reminder := range reminders {
		err = rabbitmq.PublishMessage(channel, rabbitmq.ReminderExchange, rabbitmq.ReminderRoutingKey, reminder)
		if err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
