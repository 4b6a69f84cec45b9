package calc

import (
	"context"
	"fmt"
	"time"

	"krib-booking/internal/data/entity"

	"github.com/google/uuid"
)

// DateRange is a stay with exclusive check-out: a guest leaving on day D
// does not occupy night D.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Overlaps is symmetric; back-to-back ranges do not overlap.
func Overlaps(a, b DateRange) bool {
	return a.CheckIn.Before(b.CheckOut) && a.CheckOut.After(b.CheckIn)
}

// ReservationFinder returns bookings of a property that may overlap the range.
// Implementations may over-fetch; the checker filters again.
type ReservationFinder interface {
	FindOccupying(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) ([]*entity.Booking, error)
}

type ConflictChecker struct {
	finder ReservationFinder
}

func NewConflictChecker(finder ReservationFinder) *ConflictChecker {
	return &ConflictChecker{finder: finder}
}

// HasConflict reports whether any pending or confirmed booking of the property
// overlaps [checkIn, checkOut). excludeID skips the booking being modified.
func (c *ConflictChecker) HasConflict(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) (bool, error) {
	bookings, err := c.finder.FindOccupying(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		return false, fmt.Errorf("find reservations for property %s: %w", propertyID, err)
	}

	return ConflictsWith(bookings, DateRange{CheckIn: checkIn, CheckOut: checkOut}, excludeID), nil
}

func ConflictsWith(bookings []*entity.Booking, requested DateRange, excludeID *uuid.UUID) bool {
	for _, b := range bookings {
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if !b.Status.Occupying() {
			continue
		}
		if Overlaps(DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}, requested) {
			return true
		}
	}
	return false
}
