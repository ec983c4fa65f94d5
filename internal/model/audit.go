package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate          = "create"
	AuditActionUpdate          = "update"
	AuditActionLogin           = "login"
	AuditActionLogout          = "logout"
	AuditActionRegister        = "register"
	AuditActionCompleteProfile = "complete_profile"
	AuditActionSetActive       = "set_active"
	AuditActionChangeRole      = "change_role"

	// Entity types
	AuditEntityUser = "user"
	AuditEntityAuth = "auth"
)

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Pagination
	UserID     *uuid.UUID `form:"user_id"`
	EntityID   *uuid.UUID `form:"entity_id"`
	Action     string     `form:"action"`
	EntityType string     `form:"entity_type"`
}
