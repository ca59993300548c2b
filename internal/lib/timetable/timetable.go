// Package timetable содержит календарь занятий студии: детерминированный список
// дат и времён, по которым можно бронировать занятия, и правила дедлайна отмены.
//
// Слоты нигде не хранятся — они каждый раз вычисляются из якорной даты,
// дня недели и списка времён, а затем сравниваются с бронированиями
// по строковому ключу "дата время".
package timetable

import (
	"fmt"
	"time"
)

// слот хранится и передается строками в этих форматах
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
	slotLayout = DateLayout + " " + TimeLayout
)

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// Calendar определяет расписание занятий студии и правило отмены.
type Calendar struct {
	loc     *time.Location
	anchor  time.Time
	weekday time.Weekday
	weeks   int
	times   []string
	cutoff  time.Duration
}

// New создает Calendar из настроек.
//
// timezone — имя зоны IANA (например, "Australia/Sydney"), anchorDate — дата в
// формате 2006-01-02, от которой начинается расписание, weekdayName — день недели
// занятий ("Wednesday"), weeks — количество недель вперед, times — список времён
// занятий в формате 15:04, cutoff — минимальный запас до начала занятия,
// при котором еще разрешена отмена.
func New(timezone, anchorDate, weekdayName string, weeks int, times []string, cutoff time.Duration) (*Calendar, error) {
	const op = "timetable.New"

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	anchor, err := time.ParseInLocation(DateLayout, anchorDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	weekday, ok := weekdays[weekdayName]
	if !ok {
		return nil, fmt.Errorf("%s: unknown weekday %q", op, weekdayName)
	}
	if weeks <= 0 {
		return nil, fmt.Errorf("%s: weeks must be positive, got %d", op, weeks)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%s: at least one slot time is required", op)
	}
	for _, tm := range times {
		if _, err := time.Parse(TimeLayout, tm); err != nil {
			return nil, fmt.Errorf("%s: bad slot time %q: %w", op, tm, err)
		}
	}

	return &Calendar{
		loc:     loc,
		anchor:  anchor,
		weekday: weekday,
		weeks:   weeks,
		times:   times,
		cutoff:  cutoff,
	}, nil
}

// Location возвращает часовой пояс студии.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Cutoff возвращает минимальный запас времени до начала занятия,
// при котором разрешена отмена.
func (c *Calendar) Cutoff() time.Duration {
	return c.cutoff
}

// SlotDates возвращает даты всех занятий: якорная дата сдвигается вперед до
// ближайшего дня недели занятий (сама якорная дата тоже считается), затем
// выдается по одной дате на неделю. Функция чистая и детерминированная.
func (c *Calendar) SlotDates() []string {
	d := c.anchor
	for d.Weekday() != c.weekday {
		d = d.AddDate(0, 0, 1)
	}

	dates := make([]string, 0, c.weeks)
	for i := 0; i < c.weeks; i++ {
		dates = append(dates, d.AddDate(0, 0, 7*i).Format(DateLayout))
	}
	return dates
}

// SlotTimes возвращает фиксированный упорядоченный список времён занятий,
// одинаковый для каждой даты.
func (c *Calendar) SlotTimes() []string {
	times := make([]string, len(c.times))
	copy(times, c.times)
	return times
}

// ParseSlot разбирает пару (дата, время) в момент начала занятия
// в часовом поясе студии.
func (c *Calendar) ParseSlot(date, tm string) (time.Time, error) {
	const op = "timetable.ParseSlot"
	slot, err := time.ParseInLocation(slotLayout, date+" "+tm, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return slot, nil
}

// SlotKey возвращает строковый ключ слота, по которому бронирования
// сравниваются с расписанием.
func SlotKey(date, tm string) string {
	return date + " " + tm
}

// IsCancellable сообщает, можно ли еще отменить занятие (date, tm)
// в момент now: до начала занятия должно оставаться строго больше cutoff.
// Неразбираемая пара — это не ошибка, а просто false.
func (c *Calendar) IsCancellable(date, tm string, now time.Time) bool {
	slot, err := c.ParseSlot(date, tm)
	if err != nil {
		return false
	}
	return slot.Sub(now) > c.cutoff
}
