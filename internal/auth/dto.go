package auth

import (
	"time"

	"github.com/angelmondragon/shopcart-backend/internal/users"
)

// RegisterRequest captures the payload of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse returns the new account and a ready-to-use token.
type RegisterResponse struct {
	User  *users.UserDTO `json:"user"`
	Token string         `json:"token"`
}

// LoginResponse contains the access token produced by a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
