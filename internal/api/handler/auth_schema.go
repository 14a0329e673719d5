package handler

import (
	"time"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

// response is the uniform success envelope. Failures never use it — they are
// rendered by the central error handler as {"success":false,"message":...}.
type response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *userSummary `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// userSummary is the public projection handed to clients. The password hash
// is already stripped by domain.User's json tags; the summary narrows the
// surface further to what the mobile app renders.
type userSummary struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

func summarize(u *domain.User) *userSummary {
	return &userSummary{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}
