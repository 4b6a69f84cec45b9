package usecase

import (
	"fmt"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/utils"
)

// stayViolations checks a requested stay against the property's rules, in
// the order a booking request is judged. guests <= 0 skips the capacity rule.
func stayViolations(p *entity.Property, checkIn, checkOut, today time.Time, guests int) []string {
	var reasons []string

	checkIn = utils.DateOnly(checkIn)
	checkOut = utils.DateOnly(checkOut)

	if checkIn.Before(utils.DateOnly(today)) {
		reasons = append(reasons, "check-in date cannot be in the past")
	}

	if !checkOut.After(checkIn) {
		reasons = append(reasons, "check-out date must be after check-in date")
	} else {
		nights := entity.NightsBetween(checkIn, checkOut)
		if nights < p.MinNights() {
			reasons = append(reasons, fmt.Sprintf("minimum stay is %d nights", p.MinNights()))
		}
		if nights > p.MaxNights() {
			reasons = append(reasons, fmt.Sprintf("maximum stay is %d nights", p.MaxNights()))
		}
	}

	if p.AvailableFrom != nil && checkIn.Before(utils.DateOnly(*p.AvailableFrom)) {
		reasons = append(reasons, fmt.Sprintf("property is available from %s", utils.FormatDate(*p.AvailableFrom)))
	}
	if p.AvailableTo != nil && checkOut.After(utils.DateOnly(*p.AvailableTo)) {
		reasons = append(reasons, fmt.Sprintf("property is available until %s", utils.FormatDate(*p.AvailableTo)))
	}

	if guests > 0 && guests > p.MaxGuests {
		reasons = append(reasons, fmt.Sprintf("property allows at most %d guests", p.MaxGuests))
	}

	return reasons
}

const reasonDatesTaken = "property is already booked for some of these dates"

// parseStay parses the two calendar dates of a request
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Reason: err.Error()}
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Reason: err.Error()}
	}
	return in, out, nil
}
