/**
 * @description
 * This file defines the pricing-rule domain models: the flat tier rows the
 * store persists and the grouped, normalized PricingConfig the calculator
 * consumes. A config is immutable once constructed for a calculation; the
 * engine never mutates it.
 *
 * @notes
 * - Tiers are half-open intervals: min inclusive, max exclusive. A nil Max
 *   marks the last tier of a group and is treated as unbounded above.
 * - Rule rows arrive from Postgres or from the static defaults in the
 *   pricing package; the engine is agnostic to the source.
 */

package domain

// RateBasis is the dimension a shipping-rate tier is keyed on.
type RateBasis string

const (
	BasisValue  RateBasis = "value"  // order value in VND
	BasisWeight RateBasis = "weight" // chargeable weight in kg
	BasisVolume RateBasis = "volume" // volume in cubic metres
)

// Valid reports whether the basis is one of the supported dimensions.
func (b RateBasis) Valid() bool {
	return b == BasisValue || b == BasisWeight || b == BasisVolume
}

// CargoSubtype distinguishes official-method tiers for dense versus bulky
// cargo. Empty for value-basis tiers.
type CargoSubtype string

const (
	SubtypeHeavy CargoSubtype = "heavy"
	SubtypeBulky CargoSubtype = "bulky"
)

// ServiceFeeTier is one row of the tiered purchase-service fee: for orders
// in [MinValue, MaxValue) VND under the given method and deposit tier, the
// fee is FeePercent of the goods value.
type ServiceFeeTier struct {
	ID             int64          `json:"id,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	DepositPercent int            `json:"deposit_percent"`
	MinValue       float64        `json:"min_value"`
	MaxValue       *float64       `json:"max_value,omitempty"` // nil = unbounded
	FeePercent     float64        `json:"fee_percent"`
}

// ShippingRateTier is one row of the tiered international shipping rate:
// for query values in [MinValue, MaxValue) on the tier's basis, shipping is
// billed at PricePerUnit VND per kg (value/weight basis) or per m3 (volume
// basis), per destination warehouse.
type ShippingRateTier struct {
	ID             int64          `json:"id,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	Warehouse      Warehouse      `json:"warehouse"`
	Basis          RateBasis      `json:"rate_basis"`
	Subtype        CargoSubtype   `json:"subtype,omitempty"` // heavy/bulky for official weight/volume tiers
	MinValue       float64        `json:"min_value"`
	MaxValue       *float64       `json:"max_value,omitempty"` // nil = unbounded
	PricePerUnit   float64        `json:"price_per_unit"`
}

// Bounds returns the tier's half-open interval; a nil max is unbounded.
func (t ServiceFeeTier) Bounds() (min float64, max *float64) {
	return t.MinValue, t.MaxValue
}

// Bounds returns the tier's half-open interval; a nil max is unbounded.
func (t ShippingRateTier) Bounds() (min float64, max *float64) {
	return t.MinValue, t.MaxValue
}

// ServiceFeeGroupKey identifies one partition of the service-fee tiers.
type ServiceFeeGroupKey struct {
	Method         ShippingMethod
	DepositPercent int
}

// ShippingRateGroupKey identifies one partition of the shipping-rate tiers.
type ShippingRateGroupKey struct {
	Method    ShippingMethod
	Warehouse Warehouse
	Basis     RateBasis
	Subtype   CargoSubtype
}

// FallbackRates carries operator-configured substitute rates applied when
// tier resolution finds no match. Non-positive fields mean the engine's
// built-in defaults.
type FallbackRates struct {
	ServiceFeePercent    float64 `json:"service_fee_percent,omitempty"`
	ShippingRatePerKgVND float64 `json:"shipping_rate_per_kg_vnd,omitempty"`
}

// PricingConfig is the normalized, grouped rule set one calculation runs
// against. Tiers within each group are sorted ascending by MinValue.
type PricingConfig struct {
	// ExchangeRate is VND per unit of foreign currency (CNY); always > 0.
	ExchangeRate float64 `json:"exchange_rate"`

	// Fallbacks overrides the engine's built-in substitute rates; the zero
	// value keeps the defaults.
	Fallbacks FallbackRates `json:"-"`

	ServiceFeeTiers   map[ServiceFeeGroupKey][]ServiceFeeTier     `json:"-"`
	ShippingRateTiers map[ShippingRateGroupKey][]ShippingRateTier `json:"-"`
}

// ServiceFeeGroup returns the sorted tiers for a (method, deposit) pair, or
// nil when the group is empty. Callers fall back to default rates on nil.
func (c PricingConfig) ServiceFeeGroup(method ShippingMethod, depositPercent int) []ServiceFeeTier {
	return c.ServiceFeeTiers[ServiceFeeGroupKey{Method: method, DepositPercent: depositPercent}]
}

// ShippingRateGroup returns the sorted tiers for a full shipping-rate key,
// or nil when the group is empty.
func (c PricingConfig) ShippingRateGroup(method ShippingMethod, warehouse Warehouse, basis RateBasis, subtype CargoSubtype) []ShippingRateTier {
	return c.ShippingRateTiers[ShippingRateGroupKey{
		Method:    method,
		Warehouse: warehouse,
		Basis:     basis,
		Subtype:   subtype,
	}]
}
