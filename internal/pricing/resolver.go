/**
 * @description
 * This file implements the tier resolver: a range lookup over ordered,
 * half-open numeric intervals. It serves both the service-fee-by-order-value
 * and the shipping-rate-by-weight/volume/value lookups so the boundary
 * semantics live in exactly one place.
 *
 * @notes
 * - Boundaries are closed on the low end and open on the high end: a value
 *   exactly equal to a tier's max belongs to the next tier, never both.
 * - A misconfigured group (gap, or value below the first min) yields a
 *   no-match result instead of an error; the caller decides the fallback.
 */

package pricing

// Tier is any rule row exposing a [min, max) interval. A nil max marks the
// last tier of a group and is treated as unbounded above.
type Tier interface {
	Bounds() (min float64, max *float64)
}

// ResolveTier returns the tier t in tiers such that t.min <= v < t.max,
// with the last tier's nil max treated as +infinity. The tiers must be
// sorted ascending by min; exactly one matches when the group partitions
// the non-negative reals. The second return is false when no tier matches
// (negative v, empty group, or a gap in the configuration).
//
// Groups hold at most tens of entries, so a linear scan is sufficient.
func ResolveTier[T Tier](tiers []T, v float64) (T, bool) {
	var zero T
	if v < 0 {
		return zero, false
	}
	for _, t := range tiers {
		min, max := t.Bounds()
		if v < min {
			// Sorted ascending: once v is below a min, a gap precedes it
			// and nothing later can match.
			return zero, false
		}
		if max == nil || v < *max {
			return t, true
		}
	}
	return zero, false
}
