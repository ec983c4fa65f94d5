package model

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the profile record handed to clients after login and after every
// self-mutation. Clients replace their cached copy with it wholesale.
type Identity struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role" validate:"required"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	IsNew     bool      `json:"isNew"`
	IsAdmin   *bool     `json:"isAdmin,omitempty"`
}

// Clone returns a deep copy of i.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Phone != nil {
		phone := *i.Phone
		c.Phone = &phone
	}
	if i.IsAdmin != nil {
		isAdmin := *i.IsAdmin
		c.IsAdmin = &isAdmin
	}
	return &c
}

// FullName joins first and last name.
func (i *Identity) FullName() string {
	if i.LastName == "" {
		return i.FirstName
	}
	if i.FirstName == "" {
		return i.LastName
	}
	return i.FirstName + " " + i.LastName
}

// User is the stored account row behind an Identity.
type User struct {
	Base
	Email        string  `json:"email" db:"email"`
	PasswordHash string  `json:"-" db:"password_hash"`
	FirstName    string  `json:"first_name" db:"first_name"`
	LastName     string  `json:"last_name" db:"last_name"`
	Phone        *string `json:"phone" db:"phone"`
	Role         Role    `json:"role" db:"role"`
	IsActive     bool    `json:"is_active" db:"is_active"`
	IsNew        bool    `json:"is_new" db:"is_new"`

	LastLoginAt        *time.Time `json:"last_login_at" db:"last_login_at"`
	ProfileCompletedAt *time.Time `json:"profile_completed_at" db:"profile_completed_at"`
}

// Identity builds the client-facing identity for the user.
func (u *User) Identity() *Identity {
	id := &Identity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		IsNew:     u.IsNew,
	}
	if u.Role == RoleAdmin || u.Role == RoleSuperAdmin {
		isAdmin := true
		id.IsAdmin = &isAdmin
	}
	return id
}
