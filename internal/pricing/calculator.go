/**
 * @description
 * This file implements the cost calculator: the single entry point that
 * turns an order plus a pricing configuration into a full landed-cost
 * breakdown. It owns all tie-break and fallback policy; tier lookups go
 * through the resolver and the arithmetic happens here.
 *
 * @notes
 * - The calculation is pure and synchronous: same (order, config) in, same
 *   breakdown out. No I/O, no shared state, safe to call concurrently.
 * - Pricing-data gaps never fail a quote; the documented fallback rates are
 *   substituted and the breakdown is flagged. Structurally invalid input is
 *   rejected with the domain's typed errors before any arithmetic runs.
 * - No rounding is applied to monetary outputs; formatting is the caller's
 *   concern.
 */

package pricing

import "github.com/nhaphang/quote-service/internal/domain"

// Fallback rates substituted when a tier group is empty or a value falls
// outside every configured tier. The fee-percent and per-kg rates can be
// overridden through PricingConfig.Fallbacks.
const (
	FallbackServiceFeePercent = 3.0
	FallbackRatePerKgVND      = 30_000
	FallbackRatePerM3VND      = 4_000_000
)

func fallbackFeePercent(cfg domain.PricingConfig) float64 {
	if cfg.Fallbacks.ServiceFeePercent > 0 {
		return cfg.Fallbacks.ServiceFeePercent
	}
	return FallbackServiceFeePercent
}

func fallbackRatePerKg(cfg domain.PricingConfig) float64 {
	if cfg.Fallbacks.ShippingRatePerKgVND > 0 {
		return cfg.Fallbacks.ShippingRatePerKgVND
	}
	return FallbackRatePerKgVND
}

// VolumetricDivisor converts package dimensions in cm to volumetric weight
// in kg: (L x W x H) / 6000, the air-cargo convention the rate card uses.
const VolumetricDivisor = 6000

// Calculate computes the landed-cost breakdown for an order under the given
// pricing configuration. It returns a typed domain error for structurally
// invalid input; pricing-data gaps degrade to fallback rates instead.
func Calculate(order domain.OrderDetails, cfg domain.PricingConfig) (domain.CostBreakdown, error) {
	if err := order.Validate(); err != nil {
		return domain.CostBreakdown{}, err
	}

	rate := cfg.ExchangeRate
	usedFallback := false
	if rate <= 0 {
		rate = DefaultExchangeRate
		usedFallback = true
	}

	breakdown := domain.CostBreakdown{
		ExchangeRate:   rate,
		DepositPercent: order.DepositPercent,
		TotalQuantity:  order.TotalQuantity(),
	}

	// Degenerate order: no items or zero quantity yields an all-zero
	// breakdown rather than a division error.
	if breakdown.TotalQuantity == 0 {
		breakdown.UsedFallbackRates = usedFallback
		return breakdown, nil
	}

	// Step 1: goods totals, honoring negotiated price overrides.
	for _, li := range order.Items {
		breakdown.TotalGoodsForeign += li.EffectiveUnitPrice() * float64(li.Quantity)
	}
	breakdown.TotalGoodsVND = breakdown.TotalGoodsForeign * rate

	// Step 2: weight and volume totals. The official channel prices bulky
	// cargo by volumetric weight, so its chargeable weight takes the
	// greater of actual and volumetric per item before summation.
	volumetric := order.ShippingMethod == domain.MethodChinhNgach
	for _, li := range order.Items {
		qty := float64(li.Quantity)
		breakdown.TotalWeightKg += li.WeightKg * qty

		chargeable := li.WeightKg
		if li.Dimensions != nil {
			breakdown.TotalVolumeM3 += li.Dimensions.VolumeCm3() / 1_000_000 * qty
			if volumetric {
				if vw := li.Dimensions.VolumeCm3() / VolumetricDivisor; vw > chargeable {
					chargeable = vw
				}
			}
		}
		breakdown.TotalChargeableWeightKg += chargeable * qty
	}

	// Step 3: service fee by goods value within the (method, deposit) group.
	breakdown.ServiceFeePercent = fallbackFeePercent(cfg)
	feeTiers := cfg.ServiceFeeGroup(order.ShippingMethod, order.DepositPercent)
	if tier, ok := ResolveTier(feeTiers, breakdown.TotalGoodsVND); ok {
		breakdown.ServiceFeePercent = tier.FeePercent
	} else {
		usedFallback = true
	}
	breakdown.ServiceFeeVND = breakdown.TotalGoodsVND * breakdown.ServiceFeePercent / 100

	// Step 4: international shipping fee.
	shippingFallback := resolveShipping(order, cfg, &breakdown)
	usedFallback = usedFallback || shippingFallback

	// Step 5: in-country (China domestic) shipping, converted to VND.
	for _, li := range order.Items {
		breakdown.InternalShippingVND += li.InternalShippingForeign * rate
	}

	// Steps 6-8: grand total, deposit split, per-unit average. Deposit and
	// remainder derive from the same totals, so their sum reproduces the
	// landed cost exactly.
	breakdown.TotalLandedCostVND = breakdown.TotalGoodsVND +
		breakdown.ServiceFeeVND +
		breakdown.IntlShippingFeeVND +
		breakdown.InternalShippingVND
	breakdown.DepositAmountVND = breakdown.TotalGoodsVND * float64(order.DepositPercent) / 100
	breakdown.RemainingAmountVND = breakdown.TotalLandedCostVND - breakdown.DepositAmountVND
	breakdown.AvgPricePerUnitVND = breakdown.TotalLandedCostVND / float64(breakdown.TotalQuantity)

	breakdown.UsedFallbackRates = usedFallback
	return breakdown, nil
}

// resolveShipping fills the shipping fields of the breakdown and reports
// whether a fallback rate had to be substituted.
//
// The small-parcel channel resolves its tier by order value and bills per
// kilogram of actual weight. The official channel computes the fee under
// each basis that applies (per-kg heavy tiers over chargeable weight,
// per-m3 bulky tiers over volume) and bills the costlier one.
func resolveShipping(order domain.OrderDetails, cfg domain.PricingConfig, b *domain.CostBreakdown) bool {
	if order.ShippingMethod == domain.MethodTieuNgach {
		b.ShippingBasis = domain.BasisValue
		tiers := cfg.ShippingRateGroup(order.ShippingMethod, order.Warehouse, domain.BasisValue, "")
		if tier, ok := ResolveTier(tiers, b.TotalGoodsVND); ok {
			b.ShippingRateVND = tier.PricePerUnit
			b.IntlShippingFeeVND = tier.PricePerUnit * b.TotalWeightKg
			return false
		}
		rate := fallbackRatePerKg(cfg)
		b.ShippingRateVND = rate
		b.IntlShippingFeeVND = rate * b.TotalWeightKg
		return true
	}

	type candidate struct {
		basis   domain.RateBasis
		subtype domain.CargoSubtype
		rate    float64
		fee     float64
	}
	var candidates []candidate

	weightTiers := cfg.ShippingRateGroup(order.ShippingMethod, order.Warehouse, domain.BasisWeight, domain.SubtypeHeavy)
	if tier, ok := ResolveTier(weightTiers, b.TotalChargeableWeightKg); ok {
		candidates = append(candidates, candidate{
			basis:   domain.BasisWeight,
			subtype: domain.SubtypeHeavy,
			rate:    tier.PricePerUnit,
			fee:     tier.PricePerUnit * b.TotalChargeableWeightKg,
		})
	}
	if b.TotalVolumeM3 > 0 {
		volumeTiers := cfg.ShippingRateGroup(order.ShippingMethod, order.Warehouse, domain.BasisVolume, domain.SubtypeBulky)
		if tier, ok := ResolveTier(volumeTiers, b.TotalVolumeM3); ok {
			candidates = append(candidates, candidate{
				basis:   domain.BasisVolume,
				subtype: domain.SubtypeBulky,
				rate:    tier.PricePerUnit,
				fee:     tier.PricePerUnit * b.TotalVolumeM3,
			})
		}
	}

	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.fee > best.fee {
				best = c
			}
		}
		b.ShippingBasis = best.basis
		b.ShippingSubtype = best.subtype
		b.ShippingRateVND = best.rate
		b.IntlShippingFeeVND = best.fee
		return false
	}

	// No tier data for either basis: fall back on whichever measure the
	// order actually has, preferring weight.
	if b.TotalChargeableWeightKg > 0 || b.TotalVolumeM3 == 0 {
		rate := fallbackRatePerKg(cfg)
		b.ShippingBasis = domain.BasisWeight
		b.ShippingSubtype = domain.SubtypeHeavy
		b.ShippingRateVND = rate
		b.IntlShippingFeeVND = rate * b.TotalChargeableWeightKg
	} else {
		b.ShippingBasis = domain.BasisVolume
		b.ShippingSubtype = domain.SubtypeBulky
		b.ShippingRateVND = FallbackRatePerM3VND
		b.IntlShippingFeeVND = FallbackRatePerM3VND * b.TotalVolumeM3
	}
	return true
}
