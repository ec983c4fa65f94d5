package model

import (
	"errors"
)

// LoginRequest is the credentials body for /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterRequest is the patient self-registration body.
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Phone     *string `json:"phone"`
}

// CompleteProfileRequest is submitted once, at the end of the first-login wizard.
type CompleteProfileRequest struct {
	FirstName   string  `json:"firstName" binding:"required"`
	LastName    string  `json:"lastName" binding:"required"`
	Phone       string  `json:"phone" binding:"required,min=7"`
	NewPassword *string `json:"newPassword" binding:"omitempty,min=8"`
}

// UpdateSelfRequest carries the fields a user may change on their own record.
type UpdateSelfRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	Phone     *string `json:"phone" binding:"omitempty,min=7"`
}

// LoginResponse pairs the signed assertion with the identity it was issued for.
type LoginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)
