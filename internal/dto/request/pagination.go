package request

import "krib-booking/pkg/utils"

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type PaginatedRequest struct {
	Limit  int `json:"limit" validate:"gte=0"`
	Offset int `json:"offset" validate:"gte=0"`
}

// Normalize applies the default limit and caps it at MaxLimit
func (p PaginatedRequest) Normalize() PaginatedRequest {
	p.Limit = utils.ClampLimit(p.Limit, DefaultLimit, MaxLimit)
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
