// Package models содержит доменные структуры покупок тарифов.
package models

import "time"

// Purchase — неизменяемая запись о покупке тарифа.
//
// Credits фиксирует, сколько кредитов было начислено в момент покупки:
// по этой величине административное удаление покупки откатывает начисление.
type Purchase struct {
	ID        int       `json:"id"`         // Идентификатор покупки
	UserUID   string    `json:"user_uid"`   // Покупатель
	PlanName  string    `json:"plan_name"`  // Название тарифа
	Credits   int       `json:"credits"`    // Начислено кредитов в момент покупки
	CreatedAt time.Time `json:"created_at"` // Момент подтверждения покупки
}
