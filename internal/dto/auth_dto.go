package dto

import "github.com/google/uuid"

type SignUpRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
}

type SignUpResponse struct {
	Id    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Id          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        *string   `json:"name"`
	AccessToken string    `json:"access_token"`
}
