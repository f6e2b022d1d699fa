/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access the quote-service needs. The application layer depends on this
 * interface rather than on PostgreSQL directly, so the pricing pipeline can
 * be tested with in-memory stubs and the calculation engine stays free of
 * I/O.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"

	"github.com/nhaphang/quote-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Pricing rule reads. Tier lists come back as flat rows; the pricing
	// package normalizes them into grouped config.
	GetLatestExchangeRate(ctx context.Context) (float64, error)
	ListServiceFeeTiers(ctx context.Context) ([]domain.ServiceFeeTier, error)
	ListShippingRateTiers(ctx context.Context) ([]domain.ShippingRateTier, error)

	// Admin pricing rule writes. Replacements swap one tier group out
	// atomically so readers never observe a half-written schedule.
	SetExchangeRate(ctx context.Context, rate float64) error
	ReplaceServiceFeeTiers(ctx context.Context, method domain.ShippingMethod, depositPercent int, tiers []domain.ServiceFeeTier) error
	ReplaceShippingRateTiers(ctx context.Context, key domain.ShippingRateGroupKey, tiers []domain.ShippingRateTier) error

	// Lead intake.
	CreateLead(ctx context.Context, lead *domain.Lead) error
	ListLeads(ctx context.Context, opts domain.LeadListOptions) ([]domain.Lead, error)
}
