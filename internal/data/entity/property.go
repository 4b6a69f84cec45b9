package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMinimumNights = 1
	DefaultMaximumNights = 365
)

type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
)

type Property struct {
	Base
	HostID        uuid.UUID      `db:"host_id"`
	Title         string         `db:"title"`
	Description   *string        `db:"description"`
	City          string         `db:"city"`
	Country       string         `db:"country"`
	Address       *string        `db:"address"`
	PricePerNight float64        `db:"price_per_night"`
	Bedrooms      int            `db:"bedrooms"`
	Bathrooms     int            `db:"bathrooms"`
	MaxGuests     int            `db:"max_guests"`
	MinimumNights *int           `db:"minimum_nights"`
	MaximumNights *int           `db:"maximum_nights"`
	AvailableFrom *time.Time     `db:"available_from"`
	AvailableTo   *time.Time     `db:"available_to"`
	Status        PropertyStatus `db:"status"`
}

func (p *Property) MinNights() int {
	if p.MinimumNights == nil || *p.MinimumNights < 1 {
		return DefaultMinimumNights
	}
	return *p.MinimumNights
}

func (p *Property) MaxNights() int {
	if p.MaximumNights == nil || *p.MaximumNights < 1 {
		return DefaultMaximumNights
	}
	return *p.MaximumNights
}
