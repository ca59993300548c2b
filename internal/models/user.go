// Package models содержит доменную модель пользователя студии,
// включающую данные учётной записи, хэш пароля и остаток кредитов.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя студии.
//
// RemainingCredits — единственное изменяемое поле баланса:
// один кредит дает право на одно бронирование занятия.
type User struct {
	UUID             string    `json:"uuid"`              // Уникальный идентификатор пользователя
	Email            string    `json:"email"`             // Электронная почта (уникальная)
	Username         string    `json:"username"`          // Имя пользователя (уникальное)
	PasswordHash     string    `json:"-"`                 // Хэш пароля, в ответы не попадает
	Role             string    `json:"role"`              // Роль пользователя, admin или user
	RemainingCredits int       `json:"remaining_credits"` // Остаток кредитов на занятия, всегда >= 0
	CreatedAt        time.Time `json:"created_at"`        // Дата регистрации
}
