// Package models содержит доменные структуры бронирований занятий.
package models

import "time"

// Booking представляет бронирование одного занятия пользователем.
//
// Слот задается парой строк (дата, время) в форматах 2006-01-02 и 15:04 —
// так же бронирование сравнивается с расчетным расписанием по ключу слота.
// Бронирование удаляется при отмене, мягкого удаления нет.
type Booking struct {
	ID        int       `json:"id"`         // Идентификатор бронирования
	UserUID   string    `json:"user_uid"`   // Владелец бронирования
	Date      string    `json:"date"`       // Дата занятия, 2006-01-02
	Time      string    `json:"time"`       // Время занятия, 15:04
	CreatedAt time.Time `json:"created_at"` // Момент создания бронирования
}

// BookingReminder — данные для письма-напоминания о завтрашнем занятии.
// Публикуется планировщиком в очередь и потребляется отправителем.
type BookingReminder struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// TimetableView — расписание, подготовленное для уровня представления:
// даты и времена занятий, занятые пользователем слоты, признак
// "еще можно отменить" по каждому слоту и остаток кредитов.
type TimetableView struct {
	Dates            []TimetableDate `json:"dates"`
	Times            []string        `json:"times"`
	Booked           []string        `json:"booked"`      // ключи слотов "дата время"
	Cancellable      map[string]bool `json:"cancellable"` // ключ слота -> можно отменить
	RemainingCredits int             `json:"remaining_credits"`
	CutoffHours      float64         `json:"cancel_cutoff_hours"`
}

// TimetableDate — дата занятия в машинном и отображаемом форматах.
type TimetableDate struct {
	Raw    string `json:"raw"`    // 2006-01-02
	Pretty string `json:"pretty"` // 02-01-2006
}
