// Файл: internal/entities/user_entity.go
package entities

import "equipment-tracker/pkg/types"

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"` // admin | user | hou

	Password string `json:"-" db:"password_hash"`

	UnitID *uint64 `json:"unit_id" db:"unit_id"`

	types.BaseEntity

	// Поля для связанных данных (не колонки в таблице)
	Unit *Unit `db:"-" json:"unit,omitempty"`
}
