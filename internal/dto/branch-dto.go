package dto

import "github.com/aarondl/null/v8"

type BranchDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type CreateBranchDTO struct {
	Name    string  `json:"name" validate:"required,max=50"`
	Address *string `json:"address" validate:"omitempty,max=150"`
}

type UpdateBranchDTO struct {
	Name    null.String `json:"name" validate:"omitempty,max=50"`
	Address null.String `json:"address" validate:"omitempty,max=150"`
}
