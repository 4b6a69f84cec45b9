package calc

import (
	"time"

	"krib-booking/internal/data/entity"
)

const (
	DefaultPlatformFeePercentage = 15.0
	DefaultPayoutDelayDays       = 1
)

type PayoutSplit struct {
	HostAmount  float64 `json:"host_amount"`
	PlatformFee float64 `json:"platform_fee"`
}

// SplitPayout divides a booking total between host and platform.
// HostAmount + PlatformFee always equals the total to the cent.
func SplitPayout(totalAmount, feePercentage float64) PayoutSplit {
	total := toCents(totalAmount)
	fee := percentOf(total, feePercentage/100)
	return PayoutSplit{
		HostAmount:  fromCents(total - fee),
		PlatformFee: fromCents(fee),
	}
}

type PayoutPolicy struct {
	FeePercentage float64
	DelayDays     int
}

func DefaultPayoutPolicy() PayoutPolicy {
	return PayoutPolicy{FeePercentage: DefaultPlatformFeePercentage, DelayDays: DefaultPayoutDelayDays}
}

// EligibleFrom is the first calendar day a payout may be sent
func (p PayoutPolicy) EligibleFrom(checkOut time.Time) time.Time {
	y, m, d := checkOut.Date()
	return time.Date(y, m, d+p.DelayDays, 0, 0, 0, 0, time.UTC)
}

type PayoutEligibility struct {
	Eligible     bool      `json:"eligible"`
	EligibleFrom time.Time `json:"eligible_from"`
	Reasons      []string  `json:"reasons,omitempty"`
}

// Eligibility checks payment, payout state, the post-checkout delay and the
// host's external account. Every failing condition is listed.
func (p PayoutPolicy) Eligibility(b *entity.Booking, host *entity.Host, today time.Time) PayoutEligibility {
	result := PayoutEligibility{EligibleFrom: p.EligibleFrom(b.CheckOut)}

	if b.PaymentStatus != entity.PaymentStatusSucceeded {
		result.Reasons = append(result.Reasons, "payment has not succeeded")
	}

	switch b.HostPayoutStatus {
	case entity.HostPayoutStatusPaid:
		result.Reasons = append(result.Reasons, "payout already paid")
	case entity.HostPayoutStatusProcessing:
		result.Reasons = append(result.Reasons, "payout already processing")
	}

	y, m, d := today.Date()
	if time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Before(result.EligibleFrom) {
		result.Reasons = append(result.Reasons, "payout delay after check-out has not passed")
	}

	if host == nil || !host.CanReceivePayouts() {
		result.Reasons = append(result.Reasons, "host payout account is not verified or payouts are disabled")
	}

	result.Eligible = len(result.Reasons) == 0
	return result
}
