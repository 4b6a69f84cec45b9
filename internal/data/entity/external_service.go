package entity

import "time"

// ExternalService is a third-party AI agent allowed to call the external API
type ExternalService struct {
	BaseNoDelete
	Name         string     `db:"name"`
	APIKeyPrefix string     `db:"api_key_prefix"`
	APIKeyHash   string     `db:"api_key_hash"`
	IsActive     bool       `db:"is_active"`
	LastUsedAt   *time.Time `db:"last_used_at"`
}
