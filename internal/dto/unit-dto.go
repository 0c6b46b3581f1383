package dto

import "github.com/aarondl/null/v8"

type UnitDTO struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	BranchID   uint64  `json:"branch_id"`
	BranchName string  `json:"branch_name,omitempty"`
	HeadUserID *uint64 `json:"head_user_id"`
	HeadName   *string `json:"head_name,omitempty"`
	HeadEmail  *string `json:"head_email,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

type CreateUnitDTO struct {
	Name     string `json:"name" validate:"required,max=100"`
	BranchID uint64 `json:"branch_id" validate:"required"`
}

type UpdateUnitDTO struct {
	Name     null.String `json:"name" validate:"omitempty,max=100"`
	BranchID null.Uint64 `json:"branch_id"`
}

// AssignHeadDTO — назначение ответственного за подразделение.
type AssignHeadDTO struct {
	UserID uint64 `json:"user_id" validate:"required"`
}
