/**
 * @description
 * This file contains the core business logic for the quote-service. The
 * `Service` struct orchestrates quoting and lead intake, coordinating between
 * the database repository, the pure pricing engine, and the message broker.
 *
 * Key features:
 * - Loads the active pricing configuration from storage and degrades to the
 *   built-in default rate card when storage is unavailable or empty.
 * - Runs the deterministic cost calculator for public quotes.
 * - Persists submitted leads with a server-side recomputed breakdown and
 *   publishes a lead.submitted event for downstream intake tooling.
 * - Guards admin pricing writes with tier schedule validation.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For lead ID generation.
 * - internal/domain, internal/pricing, internal/store: Domain models, the
 *   calculation engine, and data access.
 * - pkg/rabbitmq: Event publication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nhaphang/quote-service/internal/domain"
	"github.com/nhaphang/quote-service/internal/pricing"
	"github.com/nhaphang/quote-service/internal/store"
	"github.com/nhaphang/quote-service/pkg/rabbitmq"
)

var (
	// ErrInvalidExchangeRate is returned when an admin submits a rate that
	// cannot price anything.
	ErrInvalidExchangeRate = errors.New("exchange rate must be positive")
	// ErrInvalidTierSchedule is returned when a submitted tier schedule does
	// not form a clean partition of [0, +inf).
	ErrInvalidTierSchedule = errors.New("invalid tier schedule")
)

// Defaults carries the operator-configured substitute rates stamped onto
// every pricing configuration the service assembles: the bootstrap exchange
// rate plus overrides for the engine's fallback fee percent and per-kg
// shipping rate. Non-positive fields keep the built-in defaults.
type Defaults struct {
	ExchangeRate         float64
	ServiceFeePercent    float64
	ShippingRatePerKgVND float64
}

// Service provides the core business logic for quotes and leads.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	defaults      Defaults
}

// NewService creates a new quote service instance. defaults.ExchangeRate is
// the CNY→VND rate used when the database holds no exchange rate yet.
func NewService(repo store.Repository, producer rabbitmq.Publisher, defaults Defaults) *Service {
	if defaults.ExchangeRate <= 0 {
		defaults.ExchangeRate = pricing.DefaultExchangeRate
	}
	return &Service{
		repo:          repo,
		eventProducer: producer,
		defaults:      defaults,
	}
}

// fallbacks returns the engine override block derived from the configured
// defaults.
func (s *Service) fallbacks() domain.FallbackRates {
	return domain.FallbackRates{
		ServiceFeePercent:    s.defaults.ServiceFeePercent,
		ShippingRatePerKgVND: s.defaults.ShippingRatePerKgVND,
	}
}

// LoadPricingConfig assembles the active pricing configuration from storage.
// Quoting must always be possible, so every failure path degrades to the
// built-in default rate card instead of returning an error.
func (s *Service) LoadPricingConfig(ctx context.Context) domain.PricingConfig {
	rate, err := s.repo.GetLatestExchangeRate(ctx)
	switch {
	case errors.Is(err, store.ErrNoExchangeRate):
		rate = s.defaults.ExchangeRate
	case err != nil:
		log.Printf("level=warn component=quote_service msg=\"exchange rate lookup failed; using default pricing\" err=%v", err)
		return s.defaultConfig()
	case rate <= 0:
		log.Printf("level=warn component=quote_service msg=\"stored exchange rate is non-positive; using fallback\" rate=%f", rate)
		rate = s.defaults.ExchangeRate
	}

	feeRows, err := s.repo.ListServiceFeeTiers(ctx)
	if err != nil {
		log.Printf("level=warn component=quote_service msg=\"service fee tier load failed; using default pricing\" err=%v", err)
		return s.defaultConfig()
	}
	rateRows, err := s.repo.ListShippingRateTiers(ctx)
	if err != nil {
		log.Printf("level=warn component=quote_service msg=\"shipping rate tier load failed; using default pricing\" err=%v", err)
		return s.defaultConfig()
	}

	// A fresh database has no tier rows at all; serve the default rate card
	// so the public pricing view is never empty.
	if len(feeRows) == 0 && len(rateRows) == 0 {
		cfg := pricing.DefaultConfig()
		cfg.ExchangeRate = rate
		cfg.Fallbacks = s.fallbacks()
		return cfg
	}

	cfg := pricing.BuildConfig(rate, feeRows, rateRows)
	cfg.Fallbacks = s.fallbacks()
	return cfg
}

func (s *Service) defaultConfig() domain.PricingConfig {
	cfg := pricing.DefaultConfig()
	cfg.ExchangeRate = s.defaults.ExchangeRate
	cfg.Fallbacks = s.fallbacks()
	return cfg
}

// Quote computes the landed cost breakdown for an order against the active
// pricing configuration. Validation errors from the engine pass through
// unchanged so the API layer can map them to typed responses.
func (s *Service) Quote(ctx context.Context, order domain.OrderDetails) (domain.CostBreakdown, error) {
	cfg := s.LoadPricingConfig(ctx)
	return pricing.Calculate(order, cfg)
}

// SubmitLead recomputes the quote server-side, persists the lead, and
// announces it on the message broker. The client's numbers are never trusted;
// the stored breakdown is always our own computation. Event publication is
// best-effort: a broker failure logs a warning but does not fail the
// submission.
func (s *Service) SubmitLead(ctx context.Context, lead *domain.Lead) error {
	breakdown, err := s.Quote(ctx, lead.Order)
	if err != nil {
		return err
	}

	lead.ID = uuid.New()
	lead.Breakdown = breakdown
	lead.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateLead(ctx, lead); err != nil {
		return fmt.Errorf("failed to persist lead: %w", err)
	}

	event := rabbitmq.LeadSubmittedEvent{
		LeadID:             lead.ID,
		CustomerName:       lead.CustomerName,
		Phone:              lead.Phone,
		Warehouse:          string(lead.Order.Warehouse),
		ShippingMethod:     string(lead.Order.ShippingMethod),
		TotalLandedCostVND: breakdown.TotalLandedCostVND,
		Timestamp:          lead.CreatedAt,
	}
	if err := s.eventProducer.PublishLeadSubmitted(ctx, event); err != nil {
		log.Printf("level=warn component=quote_service msg=\"lead submitted event publish failed\" lead_id=%s err=%v", lead.ID, err)
	}

	return nil
}

// ListLeads returns persisted leads for the admin back office.
func (s *Service) ListLeads(ctx context.Context, opts domain.LeadListOptions) ([]domain.Lead, error) {
	return s.repo.ListLeads(ctx, opts)
}

// UpdateExchangeRate stores a new CNY→VND rate.
func (s *Service) UpdateExchangeRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return ErrInvalidExchangeRate
	}
	return s.repo.SetExchangeRate(ctx, rate)
}

// ReplaceServiceFeeTiers swaps out the service fee schedule for one
// (method, deposit) group. The submitted tiers must form a clean partition;
// bad schedules are rejected here so the resolver never sees them.
func (s *Service) ReplaceServiceFeeTiers(ctx context.Context, method domain.ShippingMethod, depositPercent int, tiers []domain.ServiceFeeTier) error {
	if !method.Valid() {
		return domain.ErrUnknownShippingMethod
	}
	if !domain.ValidDepositPercent(depositPercent) {
		return domain.ErrInvalidDepositPercent
	}
	for _, t := range tiers {
		if t.FeePercent < 0 || t.FeePercent > 100 {
			return fmt.Errorf("%w: fee percent %f out of range", ErrInvalidTierSchedule, t.FeePercent)
		}
	}
	if err := pricing.ValidatePartition(tiers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTierSchedule, err)
	}
	for i := range tiers {
		tiers[i].ShippingMethod = method
		tiers[i].DepositPercent = depositPercent
	}
	return s.repo.ReplaceServiceFeeTiers(ctx, method, depositPercent, tiers)
}

// ReplaceShippingRateTiers swaps out the shipping rate schedule for one
// (method, warehouse, basis, subtype) group.
func (s *Service) ReplaceShippingRateTiers(ctx context.Context, key domain.ShippingRateGroupKey, tiers []domain.ShippingRateTier) error {
	if !key.Method.Valid() {
		return domain.ErrUnknownShippingMethod
	}
	if !key.Warehouse.Valid() {
		return domain.ErrUnknownWarehouse
	}
	if !key.Basis.Valid() {
		return fmt.Errorf("%w: unknown rate basis %q", ErrInvalidTierSchedule, key.Basis)
	}
	for _, t := range tiers {
		if t.PricePerUnit < 0 {
			return fmt.Errorf("%w: negative price per unit", ErrInvalidTierSchedule)
		}
	}
	if err := pricing.ValidatePartition(tiers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTierSchedule, err)
	}
	for i := range tiers {
		tiers[i].ShippingMethod = key.Method
		tiers[i].Warehouse = key.Warehouse
		tiers[i].Basis = key.Basis
		tiers[i].Subtype = key.Subtype
	}
	return s.repo.ReplaceShippingRateTiers(ctx, key, tiers)
}
