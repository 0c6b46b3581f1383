package dto

import "github.com/aarondl/null/v8"

type RegisterDTO struct {
	Username string      `json:"username" validate:"required,min=3,max=150"`
	Email    string      `json:"email" validate:"required,email,max=150"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	UnitID   null.Uint64 `json:"unit_id"`
}

type LoginDTO struct {
	// Логин — имя пользователя или email.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
