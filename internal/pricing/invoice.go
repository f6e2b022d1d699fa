/**
 * @description
 * This file implements the invoice projection: the flat, display-ready
 * shape the result panel, the static invoice export, and lead payloads all
 * read. It is a pure mapping over an order and its breakdown; every number
 * is copied from the calculator's output, never recomputed.
 */

package pricing

import "github.com/nhaphang/quote-service/internal/domain"

// InvoiceLine is one display row of the invoice.
type InvoiceLine struct {
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	UnitPriceForeign float64 `json:"unit_price_foreign"`
	LineTotalForeign float64 `json:"line_total_foreign"`
	LineTotalVND     float64 `json:"line_total_vnd"`
	WeightKg         float64 `json:"weight_kg,omitempty"`
}

// Invoice is the export-ready projection of a quote: order context, line
// rows, and the breakdown totals side by side in CNY and VND.
type Invoice struct {
	Warehouse      domain.Warehouse      `json:"warehouse"`
	ShippingMethod domain.ShippingMethod `json:"shipping_method"`
	CustomerName   string                `json:"customer_name,omitempty"`
	CustomerPhone  string                `json:"customer_phone,omitempty"`

	Lines []InvoiceLine `json:"lines"`

	ExchangeRate      float64 `json:"exchange_rate"`
	TotalGoodsForeign float64 `json:"total_goods_foreign"`
	TotalGoodsVND     float64 `json:"total_goods_vnd"`

	ServiceFeePercent float64 `json:"service_fee_percent"`
	ServiceFeeVND     float64 `json:"service_fee_vnd"`

	TotalWeightKg       float64              `json:"total_weight_kg"`
	ShippingBasis       domain.RateBasis     `json:"shipping_basis"`
	ShippingSubtype     domain.CargoSubtype  `json:"shipping_subtype,omitempty"`
	ShippingRateVND     float64              `json:"shipping_rate_vnd"`
	IntlShippingFeeVND  float64              `json:"intl_shipping_fee_vnd"`
	InternalShippingVND float64              `json:"internal_shipping_vnd"`

	TotalLandedCostVND     float64 `json:"total_landed_cost_vnd"`
	TotalLandedCostForeign float64 `json:"total_landed_cost_foreign"`

	DepositPercent     int     `json:"deposit_percent"`
	DepositAmountVND   float64 `json:"deposit_amount_vnd"`
	RemainingAmountVND float64 `json:"remaining_amount_vnd"`

	TotalQuantity      int     `json:"total_quantity"`
	AvgPricePerUnitVND float64 `json:"avg_price_per_unit_vnd"`
}

// BuildInvoice projects an order and its breakdown into the invoice shape.
// The foreign-currency landed total is the only derived figure, and it is a
// unit conversion of the calculator's number, not a recalculation.
func BuildInvoice(order domain.OrderDetails, b domain.CostBreakdown) Invoice {
	inv := Invoice{
		Warehouse:      order.Warehouse,
		ShippingMethod: order.ShippingMethod,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,

		ExchangeRate:      b.ExchangeRate,
		TotalGoodsForeign: b.TotalGoodsForeign,
		TotalGoodsVND:     b.TotalGoodsVND,

		ServiceFeePercent: b.ServiceFeePercent,
		ServiceFeeVND:     b.ServiceFeeVND,

		TotalWeightKg:       b.TotalWeightKg,
		ShippingBasis:       b.ShippingBasis,
		ShippingSubtype:     b.ShippingSubtype,
		ShippingRateVND:     b.ShippingRateVND,
		IntlShippingFeeVND:  b.IntlShippingFeeVND,
		InternalShippingVND: b.InternalShippingVND,

		TotalLandedCostVND: b.TotalLandedCostVND,

		DepositPercent:     b.DepositPercent,
		DepositAmountVND:   b.DepositAmountVND,
		RemainingAmountVND: b.RemainingAmountVND,

		TotalQuantity:      b.TotalQuantity,
		AvgPricePerUnitVND: b.AvgPricePerUnitVND,
	}

	if b.ExchangeRate > 0 {
		inv.TotalLandedCostForeign = b.TotalLandedCostVND / b.ExchangeRate
	}

	for _, li := range order.Items {
		unit := li.EffectiveUnitPrice()
		lineForeign := unit * float64(li.Quantity)
		inv.Lines = append(inv.Lines, InvoiceLine{
			Name:             li.Name,
			Quantity:         li.Quantity,
			UnitPriceForeign: unit,
			LineTotalForeign: lineForeign,
			LineTotalVND:     lineForeign * b.ExchangeRate,
			WeightKg:         li.WeightKg,
		})
	}

	return inv
}
