/**
 * @description
 * This file implements the pricing rule store: it normalizes the flat tier
 * rows storage hands over into the grouped, sorted PricingConfig shape the
 * calculator consumes, validates tier partitions for admin writes, and
 * provides the static default configuration used when the database is
 * unreachable or unconfigured.
 *
 * @notes
 * - Normalization is a pure transform: group by key, sort ascending by min.
 *   Gaps and overlaps are NOT rejected here; quotes must keep rendering on
 *   bad data (the resolver degrades to a fallback). Partition validation is
 *   applied only where bad data could enter: admin writes.
 */

package pricing

import (
	"fmt"
	"sort"

	"github.com/nhaphang/quote-service/internal/domain"
)

// BuildConfig normalizes flat rule rows into a grouped PricingConfig with
// tiers sorted ascending by min. The highest tier of each group has its max
// cleared so every schedule is open-ended above. A non-positive exchange
// rate is preserved as-is; the calculator substitutes its fallback.
func BuildConfig(exchangeRate float64, feeRows []domain.ServiceFeeTier, rateRows []domain.ShippingRateTier) domain.PricingConfig {
	cfg := domain.PricingConfig{
		ExchangeRate:      exchangeRate,
		ServiceFeeTiers:   make(map[domain.ServiceFeeGroupKey][]domain.ServiceFeeTier),
		ShippingRateTiers: make(map[domain.ShippingRateGroupKey][]domain.ShippingRateTier),
	}

	for _, row := range feeRows {
		key := domain.ServiceFeeGroupKey{Method: row.ShippingMethod, DepositPercent: row.DepositPercent}
		cfg.ServiceFeeTiers[key] = append(cfg.ServiceFeeTiers[key], row)
	}
	for key := range cfg.ServiceFeeTiers {
		tiers := cfg.ServiceFeeTiers[key]
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinValue < tiers[j].MinValue })
		// The highest tier of a schedule is open-ended even when stored
		// with a numeric max.
		tiers[len(tiers)-1].MaxValue = nil
	}

	for _, row := range rateRows {
		key := domain.ShippingRateGroupKey{
			Method:    row.ShippingMethod,
			Warehouse: row.Warehouse,
			Basis:     row.Basis,
			Subtype:   row.Subtype,
		}
		cfg.ShippingRateTiers[key] = append(cfg.ShippingRateTiers[key], row)
	}
	for key := range cfg.ShippingRateTiers {
		tiers := cfg.ShippingRateTiers[key]
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinValue < tiers[j].MinValue })
		tiers[len(tiers)-1].MaxValue = nil
	}

	return cfg
}

// ValidatePartition checks that a group of tiers partitions the
// non-negative reals: first min at 0, contiguous half-open ranges with no
// gaps or overlaps, and no unbounded tier before the final one. The final
// tier may carry a numeric max; the schedule treats it as open-ended. The
// tiers need not arrive sorted. Admin writes call this so misconfigured
// rules are rejected before they reach storage.
func ValidatePartition[T Tier](tiers []T) error {
	if len(tiers) == 0 {
		return fmt.Errorf("tier group is empty")
	}

	sorted := make([]T, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		mi, _ := sorted[i].Bounds()
		mj, _ := sorted[j].Bounds()
		return mi < mj
	})

	first, _ := sorted[0].Bounds()
	if first != 0 {
		return fmt.Errorf("first tier must start at 0, starts at %v", first)
	}

	for i, t := range sorted {
		min, max := t.Bounds()
		last := i == len(sorted)-1
		if max == nil {
			if !last {
				return fmt.Errorf("unbounded tier at position %d is not the last tier", i)
			}
			continue
		}
		if *max <= min {
			return fmt.Errorf("tier [%v, %v) is empty or inverted", min, *max)
		}
		// A numeric max on the final tier is accepted; the schedule is
		// treated as unbounded above and normalization drops the bound.
		if last {
			continue
		}
		next, _ := sorted[i+1].Bounds()
		switch {
		case next > *max:
			return fmt.Errorf("gap between %v and %v", *max, next)
		case next < *max:
			return fmt.Errorf("overlap between %v and %v", next, *max)
		}
	}
	return nil
}

// DefaultExchangeRate is the VND-per-CNY rate used when no rate has been
// configured.
const DefaultExchangeRate = 3960

// span is one [min, max) step of a default schedule; rate is a fee percent
// or a per-unit price depending on the schedule it belongs to.
type span struct {
	min  float64
	max  *float64
	rate float64
}

func upTo(v float64) *float64 { return &v }

// DefaultConfig returns the static pricing configuration the service quotes
// with when the rule store is unreachable or empty. The numbers mirror the
// published rate card and form just another PricingConfig, so live rules
// and static defaults share one calculation path.
func DefaultConfig() domain.PricingConfig {
	var feeRows []domain.ServiceFeeTier
	addFees := func(method domain.ShippingMethod, deposit int, spans []span) {
		for _, s := range spans {
			feeRows = append(feeRows, domain.ServiceFeeTier{
				ShippingMethod: method,
				DepositPercent: deposit,
				MinValue:       s.min,
				MaxValue:       s.max,
				FeePercent:     s.rate,
			})
		}
	}

	// Purchase-service fee percent by goods value (VND).
	addFees(domain.MethodTieuNgach, domain.DepositPercent70, []span{
		{0, upTo(2_000_000), 5},
		{2_000_000, upTo(10_000_000), 4},
		{10_000_000, upTo(100_000_000), 3.5},
		{100_000_000, nil, 3},
	})
	addFees(domain.MethodTieuNgach, domain.DepositPercent80, []span{
		{0, upTo(2_000_000), 4.5},
		{2_000_000, upTo(10_000_000), 3.5},
		{10_000_000, upTo(100_000_000), 3},
		{100_000_000, nil, 2.5},
	})
	addFees(domain.MethodChinhNgach, domain.DepositPercent70, []span{
		{0, upTo(10_000_000), 4},
		{10_000_000, upTo(100_000_000), 3},
		{100_000_000, nil, 2.5},
	})
	addFees(domain.MethodChinhNgach, domain.DepositPercent80, []span{
		{0, upTo(10_000_000), 3.5},
		{10_000_000, upTo(100_000_000), 2.5},
		{100_000_000, nil, 2},
	})

	var rateRows []domain.ShippingRateTier
	addRates := func(method domain.ShippingMethod, wh domain.Warehouse, basis domain.RateBasis, subtype domain.CargoSubtype, spans []span) {
		for _, s := range spans {
			rateRows = append(rateRows, domain.ShippingRateTier{
				ShippingMethod: method,
				Warehouse:      wh,
				Basis:          basis,
				Subtype:        subtype,
				MinValue:       s.min,
				MaxValue:       s.max,
				PricePerUnit:   s.rate,
			})
		}
	}

	// Small-parcel channel: per-kg rate tiered by order value.
	addRates(domain.MethodTieuNgach, domain.WarehouseHanoi, domain.BasisValue, "", []span{
		{0, upTo(2_000_000), 25_000},
		{2_000_000, upTo(10_000_000), 23_000},
		{10_000_000, nil, 20_000},
	})
	addRates(domain.MethodTieuNgach, domain.WarehouseSaigon, domain.BasisValue, "", []span{
		{0, upTo(2_000_000), 28_000},
		{2_000_000, upTo(10_000_000), 26_000},
		{10_000_000, nil, 23_000},
	})

	// Official channel, dense cargo: per-kg rate tiered by chargeable weight.
	addRates(domain.MethodChinhNgach, domain.WarehouseHanoi, domain.BasisWeight, domain.SubtypeHeavy, []span{
		{0, upTo(100), 18_000},
		{100, upTo(500), 16_000},
		{500, nil, 14_000},
	})
	addRates(domain.MethodChinhNgach, domain.WarehouseSaigon, domain.BasisWeight, domain.SubtypeHeavy, []span{
		{0, upTo(100), 20_000},
		{100, upTo(500), 18_000},
		{500, nil, 16_000},
	})

	// Official channel, bulky cargo: per-m3 rate tiered by volume.
	addRates(domain.MethodChinhNgach, domain.WarehouseHanoi, domain.BasisVolume, domain.SubtypeBulky, []span{
		{0, upTo(5), 4_500_000},
		{5, upTo(20), 4_200_000},
		{20, nil, 3_900_000},
	})
	addRates(domain.MethodChinhNgach, domain.WarehouseSaigon, domain.BasisVolume, domain.SubtypeBulky, []span{
		{0, upTo(5), 4_800_000},
		{5, upTo(20), 4_500_000},
		{20, nil, 4_200_000},
	})

	return BuildConfig(DefaultExchangeRate, feeRows, rateRows)
}
