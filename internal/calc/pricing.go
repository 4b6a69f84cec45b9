package calc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"krib-booking/internal/data/entity"
)

var ErrInvalidDateRange = errors.New("check-out date must be after check-in date")

type LineItemKind string

const (
	LineItemBase     LineItemKind = "base"
	LineItemFee      LineItemKind = "fee"
	LineItemTax      LineItemKind = "tax"
	LineItemDiscount LineItemKind = "discount"
)

type LineItem struct {
	Name   string       `json:"name"`
	Amount float64      `json:"amount"`
	Kind   LineItemKind `json:"kind"`
}

type PricingBreakdown struct {
	PricePerNight float64    `json:"price_per_night"`
	Nights        int        `json:"nights"`
	LineItems     []LineItem `json:"line_items"`
	TotalPrice    float64    `json:"total_price"`
	PromoApplied  bool       `json:"promo_applied"`
}

type PricingRules struct {
	CleaningFee        float64
	ServiceFeeRate     float64
	TourismTaxPerNight float64
	PromoCode          string
	PromoRate          float64
}

func DefaultPricingRules() PricingRules {
	return PricingRules{
		CleaningFee:        75,
		ServiceFeeRate:     0.03,
		TourismTaxPerNight: 15,
		PromoCode:          "KRIB10",
		PromoRate:          0.10,
	}
}

type PricingCalculator struct {
	rules PricingRules
}

func NewPricingCalculator(rules PricingRules) *PricingCalculator {
	return &PricingCalculator{rules: rules}
}

// Calculate builds the itemized quote: base, cleaning fee, service fee,
// tourism tax, then the promo discount when the code is recognized.
// Unrecognized promo codes are ignored.
func (c *PricingCalculator) Calculate(pricePerNight float64, checkIn, checkOut time.Time, promoCode string) (*PricingBreakdown, error) {
	nights := entity.NightsBetween(checkIn, checkOut)
	if nights < 1 {
		return nil, ErrInvalidDateRange
	}

	rate := toCents(pricePerNight)
	base := rate * int64(nights)
	cleaning := toCents(c.rules.CleaningFee)
	service := percentOf(base, c.rules.ServiceFeeRate)
	tax := toCents(c.rules.TourismTaxPerNight) * int64(nights)

	items := []LineItem{
		{Name: baseItemName(pricePerNight, nights), Amount: fromCents(base), Kind: LineItemBase},
		{Name: "Cleaning fee", Amount: fromCents(cleaning), Kind: LineItemFee},
		{Name: "Service fee", Amount: fromCents(service), Kind: LineItemFee},
		{Name: "Tourism tax", Amount: fromCents(tax), Kind: LineItemTax},
	}

	total := base + cleaning + service + tax

	promoApplied := c.recognizes(promoCode)
	if promoApplied {
		discount := percentOf(base, c.rules.PromoRate)
		items = append(items, LineItem{
			Name:   fmt.Sprintf("Promo %s (%.0f%% off)", strings.ToUpper(strings.TrimSpace(promoCode)), c.rules.PromoRate*100),
			Amount: fromCents(-discount),
			Kind:   LineItemDiscount,
		})
		total -= discount
	}

	return &PricingBreakdown{
		PricePerNight: fromCents(rate),
		Nights:        nights,
		LineItems:     items,
		TotalPrice:    fromCents(total),
		PromoApplied:  promoApplied,
	}, nil
}

func (c *PricingCalculator) recognizes(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && c.rules.PromoCode != "" && strings.EqualFold(code, c.rules.PromoCode)
}

func baseItemName(rate float64, nights int) string {
	unit := "nights"
	if nights == 1 {
		unit = "night"
	}
	return fmt.Sprintf("%.2f × %d %s", rate, nights, unit)
}
