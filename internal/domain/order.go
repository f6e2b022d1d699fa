/**
 * @description
 * This file defines the order-side domain models for the quote-service: the
 * shipping enumerations, line items, and the order aggregate the calculator
 * consumes. These are plain data types with no behavior beyond validation,
 * so the pricing engine can be exercised independently of storage and HTTP.
 *
 * @notes
 * - Monetary amounts flow through the engine as float64 VND; rounding and
 *   currency formatting are presentation concerns of the API layer.
 * - Validation distinguishes caller bugs (rejected with typed errors) from
 *   pricing-data gaps, which the calculator degrades around instead.
 */

package domain

import "errors"

// ShippingMethod identifies the import channel an order ships through.
type ShippingMethod string

const (
	// MethodTieuNgach is the small-parcel/e-commerce channel; shipping
	// rates are tiered by order value and billed per kilogram.
	MethodTieuNgach ShippingMethod = "tieu_ngach"
	// MethodChinhNgach is the official bulk channel; shipping rates are
	// tiered by chargeable weight or volume per destination warehouse.
	MethodChinhNgach ShippingMethod = "chinh_ngach"
)

// Valid reports whether the method is one of the supported channels.
func (m ShippingMethod) Valid() bool {
	return m == MethodTieuNgach || m == MethodChinhNgach
}

// Warehouse identifies the destination warehouse in Vietnam.
type Warehouse string

const (
	WarehouseHanoi  Warehouse = "hanoi"
	WarehouseSaigon Warehouse = "saigon"
)

// Valid reports whether the warehouse is a known destination.
func (w Warehouse) Valid() bool {
	return w == WarehouseHanoi || w == WarehouseSaigon
}

// Deposit percentages the service accepts. The deposit is collected on the
// goods value before shipment; the remainder is due on delivery.
const (
	DepositPercent70 = 70
	DepositPercent80 = 80
)

// ValidDepositPercent reports whether p is one of the two allowed tiers.
func ValidDepositPercent(p int) bool {
	return p == DepositPercent70 || p == DepositPercent80
}

// Validation errors returned for structurally invalid input. These indicate
// a caller bug, never a pricing-data gap, so the calculator rejects the
// order before any arithmetic runs.
var (
	ErrUnknownShippingMethod    = errors.New("unknown shipping method")
	ErrUnknownWarehouse         = errors.New("unknown warehouse")
	ErrInvalidDepositPercent    = errors.New("deposit percent must be 70 or 80")
	ErrInvalidQuantity          = errors.New("line item quantity must be at least 1")
	ErrNegativeUnitPrice        = errors.New("line item unit price must not be negative")
	ErrNegativeWeight           = errors.New("line item weight must not be negative")
	ErrNegativeDimension        = errors.New("line item dimensions must not be negative")
	ErrNegativeInternalShipping = errors.New("line item internal shipping cost must not be negative")
)

// Dimensions holds a package's measurements in centimetres, used to derive
// volumetric weight for bulky cargo.
type Dimensions struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

// VolumeCm3 returns the package volume in cubic centimetres.
func (d Dimensions) VolumeCm3() float64 {
	return d.LengthCm * d.WidthCm * d.HeightCm
}

// LineItem is one product entry in an order. Created from user input, held
// for the duration of one calculation, never persisted by the engine.
type LineItem struct {
	Name                       string      `json:"name,omitempty"`
	Quantity                   int         `json:"quantity"`
	UnitPriceForeign           float64     `json:"unit_price_foreign"`
	NegotiatedUnitPriceForeign float64     `json:"negotiated_unit_price_foreign,omitempty"`
	WeightKg                   float64     `json:"weight_kg,omitempty"`
	Dimensions                 *Dimensions `json:"dimensions,omitempty"`
	InternalShippingForeign    float64     `json:"internal_shipping_foreign,omitempty"`
}

// EffectiveUnitPrice returns the negotiated unit price when one is set and
// positive, falling back to the listed unit price otherwise.
func (li LineItem) EffectiveUnitPrice() float64 {
	if li.NegotiatedUnitPriceForeign > 0 {
		return li.NegotiatedUnitPriceForeign
	}
	return li.UnitPriceForeign
}

// Validate rejects structurally invalid line items.
func (li LineItem) Validate() error {
	if li.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if li.UnitPriceForeign < 0 || li.NegotiatedUnitPriceForeign < 0 {
		return ErrNegativeUnitPrice
	}
	if li.WeightKg < 0 {
		return ErrNegativeWeight
	}
	if li.InternalShippingForeign < 0 {
		return ErrNegativeInternalShipping
	}
	if li.Dimensions != nil {
		d := *li.Dimensions
		if d.LengthCm < 0 || d.WidthCm < 0 || d.HeightCm < 0 {
			return ErrNegativeDimension
		}
	}
	return nil
}

// OrderDetails is the aggregate a quote is computed for. Customer contact
// fields are opaque to the calculator and only travel with lead submissions.
type OrderDetails struct {
	Warehouse      Warehouse      `json:"warehouse"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	DepositPercent int            `json:"deposit_percent"`
	Items          []LineItem     `json:"items"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Note          string `json:"note,omitempty"`
}

// Validate rejects orders the calculator must not be handed: unknown enum
// values or malformed line items. An empty item list is valid and yields a
// zero breakdown.
func (o OrderDetails) Validate() error {
	if !o.ShippingMethod.Valid() {
		return ErrUnknownShippingMethod
	}
	if !o.Warehouse.Valid() {
		return ErrUnknownWarehouse
	}
	if !ValidDepositPercent(o.DepositPercent) {
		return ErrInvalidDepositPercent
	}
	for _, li := range o.Items {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TotalQuantity returns the summed quantity across all line items.
func (o OrderDetails) TotalQuantity() int {
	total := 0
	for _, li := range o.Items {
		total += li.Quantity
	}
	return total
}
