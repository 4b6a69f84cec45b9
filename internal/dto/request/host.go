package request

type AutoApproveSettingsRequest struct {
	Enabled     *bool    `json:"auto_approve_bookings" validate:"required"`
	AmountLimit *float64 `json:"auto_approve_amount_limit" validate:"required,gte=0"`
}
