package entity

type UserRole string

const (
	RoleHost  UserRole = "host"
	RoleAdmin UserRole = "admin"
)

// Host is a property owner. Payout fields mirror the connected account
// held at the payment processor.
type Host struct {
	Base
	Name                   string   `db:"name"`
	Email                  string   `db:"email"`
	Phone                  *string  `db:"phone"`
	Role                   UserRole `db:"role"`
	IsActive               bool     `db:"is_active"`
	StripeAccountID        *string  `db:"stripe_account_id"`
	StripeAccountVerified  bool     `db:"stripe_account_verified"`
	PayoutsEnabled         bool     `db:"payouts_enabled"`
	AutoApproveBookings    bool     `db:"auto_approve_bookings"`
	AutoApproveAmountLimit float64  `db:"auto_approve_amount_limit"`
}

// CanReceivePayouts requires a verified, payout-enabled external account
func (h *Host) CanReceivePayouts() bool {
	return h.StripeAccountID != nil && *h.StripeAccountID != "" && h.StripeAccountVerified && h.PayoutsEnabled
}
