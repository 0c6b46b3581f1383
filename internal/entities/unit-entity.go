package entities

import "equipment-tracker/pkg/types"

type Unit struct {
	ID       uint64 `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	BranchID uint64 `json:"branch_id" db:"branch_id"`

	// У подразделения может быть не более одного ответственного (HOU).
	HeadUserID *uint64 `json:"head_user_id" db:"head_user_id"`

	types.BaseEntity

	// Поля для связанных данных (не колонки в таблице)
	Branch    *Branch `db:"-" json:"branch,omitempty"`
	HeadEmail *string `db:"-" json:"head_email,omitempty"`
	HeadName  *string `db:"-" json:"head_name,omitempty"`
}
