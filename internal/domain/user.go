package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Membership state lives on the
// Membership row; the user only carries the payment-provider customer id.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Password           string    `json:"-"` // bcrypt hash, never serialized
	ProviderCustomerID string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewUserID generates a new UUID for a user.
func NewUserID() string {
	return uuid.New().String()
}

// RegisterRequest is the validated input for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the validated input for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse is the API response after successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the user info returned after login.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// JWTClaims represents the JWT payload.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// ChangeEmailRequest is the validated input for changing the account email.
// The confirmation must match exactly.
type ChangeEmailRequest struct {
	Email        string `json:"email" validate:"required,email"`
	ConfirmEmail string `json:"confirmEmail" validate:"required,email"`
}

// ChangePasswordRequest re-authenticates with the current password before
// applying the new one.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// UserResponse is the safe API response for a user (no password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
