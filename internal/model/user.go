package model

// CreateUserRequest is the administrative account creation body.
type CreateUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Phone     *string `json:"phone"`
	Role      Role    `json:"role" binding:"required,role"`
}

// SetActiveRequest toggles an account on or off.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ChangeRoleRequest reassigns an account's role.
type ChangeRoleRequest struct {
	Role Role `json:"role" binding:"required,role"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	Pagination
	Role   Role   `json:"role" form:"role"`
	Active *bool  `json:"active" form:"active"`
	Search string `json:"search" form:"search"`
}
