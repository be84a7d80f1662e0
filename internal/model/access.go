package model

import (
	"time"

	"github.com/google/uuid"
)

// PermissionViewSensitive lets a caller see credential and token fields.
const PermissionViewSensitive = "records:view_sensitive"

// UserContext is built per request from the verified token and the user's current flags.
type UserContext struct {
	UserID      uuid.UUID `json:"user_id"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	Blocked     bool      `json:"blocked"`
	Approved    bool      `json:"approved"`
}

func (u *UserContext) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

func (u *UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type AccessLogEntry struct {
	CallerID   uuid.UUID `json:"caller_id"`
	Operation  string    `json:"operation"`
	ResourceID uuid.UUID `json:"resource_id"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
}

type AccessLogFilter struct {
	CallerID uuid.UUID
	Success  *bool
	Limit    int
}
