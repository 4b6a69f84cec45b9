package calc

import "krib-booking/internal/data/entity"

// AutoApproves reports whether the host's setting confirms a booking of this
// total without manual review. A total equal to the limit qualifies.
func AutoApproves(host *entity.Host, totalAmount float64) bool {
	if host == nil || !host.AutoApproveBookings {
		return false
	}
	return toCents(totalAmount) <= toCents(host.AutoApproveAmountLimit)
}
