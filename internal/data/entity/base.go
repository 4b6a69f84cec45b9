package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is for rows that are soft deleted (properties, hosts)
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewBaseNoDelete stamps a fresh id with both timestamps at now (UTC)
func NewBaseNoDelete(now time.Time) BaseNoDelete {
	now = now.UTC()
	return BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt forward
func (b *BaseNoDelete) Touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

// BaseSimple is for append-only rows
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

func NewBaseSimple(now time.Time) BaseSimple {
	return BaseSimple{ID: uuid.New(), CreatedAt: now.UTC()}
}
