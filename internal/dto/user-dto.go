package dto

type UserDTO struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	UnitID    *uint64 `json:"unit_id"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type UpdateUserRoleDTO struct {
	Role string `json:"role" validate:"required,role"`
}
