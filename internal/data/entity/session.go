package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer token issued to a host by the identity provider
type Session struct {
	BaseSimple
	HostID    uuid.UUID  `db:"host_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// Active reports whether the token may still authenticate at now
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
