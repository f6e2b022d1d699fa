/**
 * @description
 * This file defines the CostBreakdown value object: the full landed-cost
 * decomposition one calculation produces. It is immutable output; every
 * consumer (API response, invoice projection, lead payload) reads from the
 * same instance and never recomputes its numbers.
 */

package domain

// CostBreakdown is the result of one landed-cost calculation. All monetary
// fields are plain VND amounts with no rounding applied; percentages are
// whole-or-decimal percents (3.5 means 3.5%).
type CostBreakdown struct {
	ExchangeRate float64 `json:"exchange_rate"`

	TotalGoodsForeign float64 `json:"total_goods_foreign"`
	TotalGoodsVND     float64 `json:"total_goods_vnd"`

	ServiceFeePercent float64 `json:"service_fee_percent"`
	ServiceFeeVND     float64 `json:"service_fee_vnd"`

	// TotalWeightKg is the actual weight; TotalChargeableWeightKg applies
	// the volumetric substitution for bulky cargo where the method uses it.
	TotalWeightKg           float64 `json:"total_weight_kg"`
	TotalChargeableWeightKg float64 `json:"total_chargeable_weight_kg"`
	TotalVolumeM3           float64 `json:"total_volume_m3"`

	// ShippingBasis records which basis the international leg was billed
	// under; ShippingSubtype is set for official-method cargo tiers.
	ShippingBasis      RateBasis    `json:"shipping_basis"`
	ShippingSubtype    CargoSubtype `json:"shipping_subtype,omitempty"`
	ShippingRateVND    float64      `json:"shipping_rate_vnd"`
	IntlShippingFeeVND float64      `json:"intl_shipping_fee_vnd"`

	InternalShippingVND float64 `json:"internal_shipping_vnd"`

	TotalLandedCostVND float64 `json:"total_landed_cost_vnd"`

	DepositPercent     int     `json:"deposit_percent"`
	DepositAmountVND   float64 `json:"deposit_amount_vnd"`
	RemainingAmountVND float64 `json:"remaining_amount_vnd"`

	TotalQuantity      int     `json:"total_quantity"`
	AvgPricePerUnitVND float64 `json:"avg_price_per_unit_vnd"`

	// UsedFallbackRates flags that a pricing-data gap was papered over with
	// the documented default rates, so the UI can mark the quote indicative.
	UsedFallbackRates bool `json:"used_fallback_rates,omitempty"`
}
