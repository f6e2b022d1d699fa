package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nhaphang/quote-service/internal/domain"
	"github.com/nhaphang/quote-service/internal/store"
	"github.com/nhaphang/quote-service/pkg/rabbitmq"
)

type serviceRepoStub struct {
	store.Repository

	rate    float64
	rateErr error

	feeRows  []domain.ServiceFeeTier
	rateRows []domain.ShippingRateTier
	listErr  error

	createdLead *domain.Lead
	createErr   error

	setRate       float64
	setRateCalled bool

	replacedFeeTiers  []domain.ServiceFeeTier
	replacedRateTiers []domain.ShippingRateTier
}

func (s *serviceRepoStub) GetLatestExchangeRate(ctx context.Context) (float64, error) {
	if s.rateErr != nil {
		return 0, s.rateErr
	}
	return s.rate, nil
}

func (s *serviceRepoStub) ListServiceFeeTiers(ctx context.Context) ([]domain.ServiceFeeTier, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.feeRows, nil
}

func (s *serviceRepoStub) ListShippingRateTiers(ctx context.Context) ([]domain.ShippingRateTier, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rateRows, nil
}

func (s *serviceRepoStub) CreateLead(ctx context.Context, lead *domain.Lead) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.createdLead = lead
	return nil
}

func (s *serviceRepoStub) SetExchangeRate(ctx context.Context, rate float64) error {
	s.setRate = rate
	s.setRateCalled = true
	return nil
}

func (s *serviceRepoStub) ReplaceServiceFeeTiers(ctx context.Context, method domain.ShippingMethod, depositPercent int, tiers []domain.ServiceFeeTier) error {
	s.replacedFeeTiers = tiers
	return nil
}

func (s *serviceRepoStub) ReplaceShippingRateTiers(ctx context.Context, key domain.ShippingRateGroupKey, tiers []domain.ShippingRateTier) error {
	s.replacedRateTiers = tiers
	return nil
}

type publisherStub struct {
	events     []rabbitmq.LeadSubmittedEvent
	publishErr error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return p.publishErr
}

func (p *publisherStub) PublishLeadSubmitted(ctx context.Context, event rabbitmq.LeadSubmittedEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) Close() {}

func sampleOrder() domain.OrderDetails {
	return domain.OrderDetails{
		Warehouse:      domain.WarehouseHanoi,
		ShippingMethod: domain.MethodTieuNgach,
		DepositPercent: domain.DepositPercent70,
		Items: []domain.LineItem{
			{Name: "thermos", Quantity: 2, UnitPriceForeign: 100, WeightKg: 1.5},
		},
	}
}

func TestLoadPricingConfig_UsesStoredRate(t *testing.T) {
	repo := &serviceRepoStub{
		rate: 4100,
		feeRows: []domain.ServiceFeeTier{
			{ShippingMethod: domain.MethodTieuNgach, DepositPercent: 70, MinValue: 0, FeePercent: 4},
		},
	}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	cfg := svc.LoadPricingConfig(context.Background())
	if cfg.ExchangeRate != 4100 {
		t.Fatalf("expected stored exchange rate 4100, got %f", cfg.ExchangeRate)
	}
	group := cfg.ServiceFeeGroup(domain.MethodTieuNgach, 70)
	if len(group) != 1 || group[0].FeePercent != 4 {
		t.Fatalf("expected stored fee tier group, got %+v", group)
	}
}

func TestLoadPricingConfig_EmptyDatabaseServesDefaultRateCard(t *testing.T) {
	repo := &serviceRepoStub{rateErr: store.ErrNoExchangeRate}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	cfg := svc.LoadPricingConfig(context.Background())
	if cfg.ExchangeRate != 3960 {
		t.Fatalf("expected fallback exchange rate 3960, got %f", cfg.ExchangeRate)
	}
	if len(cfg.ServiceFeeGroup(domain.MethodTieuNgach, 70)) == 0 {
		t.Fatal("expected default rate card service fee tiers, got none")
	}
	if len(cfg.ShippingRateGroup(domain.MethodChinhNgach, domain.WarehouseHanoi, domain.BasisWeight, domain.SubtypeHeavy)) == 0 {
		t.Fatal("expected default rate card shipping tiers, got none")
	}
}

func TestLoadPricingConfig_DegradesOnStorageError(t *testing.T) {
	repo := &serviceRepoStub{rate: 4100, listErr: errors.New("connection refused")}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	cfg := svc.LoadPricingConfig(context.Background())
	if cfg.ExchangeRate != 3960 {
		t.Fatalf("expected degraded config with fallback rate, got %f", cfg.ExchangeRate)
	}
	if len(cfg.ServiceFeeGroup(domain.MethodTieuNgach, 70)) == 0 {
		t.Fatal("expected default rate card after storage error, got none")
	}
}

func TestSubmitLead_RecomputesBreakdownAndPublishes(t *testing.T) {
	repo := &serviceRepoStub{rateErr: store.ErrNoExchangeRate}
	pub := &publisherStub{}
	svc := NewService(repo, pub, Defaults{ExchangeRate: 3960})

	lead := &domain.Lead{
		CustomerName: "Nguyen Van A",
		Phone:        "0901234567",
		Order:        sampleOrder(),
		// A tampered client figure the server must overwrite.
		Breakdown: domain.CostBreakdown{TotalLandedCostVND: 1},
	}
	if err := svc.SubmitLead(context.Background(), lead); err != nil {
		t.Fatalf("SubmitLead returned error: %v", err)
	}

	if repo.createdLead == nil {
		t.Fatal("expected lead to be persisted")
	}
	if repo.createdLead.ID == uuid.Nil {
		t.Fatal("expected lead to be assigned an ID")
	}
	want, err := svc.Quote(context.Background(), lead.Order)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if repo.createdLead.Breakdown.TotalLandedCostVND != want.TotalLandedCostVND {
		t.Fatalf("expected server-recomputed breakdown %f, got %f",
			want.TotalLandedCostVND, repo.createdLead.Breakdown.TotalLandedCostVND)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one lead.submitted event, got %d", len(pub.events))
	}
	event := pub.events[0]
	if event.LeadID != repo.createdLead.ID {
		t.Fatalf("expected event lead id %s, got %s", repo.createdLead.ID, event.LeadID)
	}
	if event.TotalLandedCostVND != want.TotalLandedCostVND {
		t.Fatalf("expected event total %f, got %f", want.TotalLandedCostVND, event.TotalLandedCostVND)
	}
}

func TestSubmitLead_PublishFailureDoesNotFailSubmission(t *testing.T) {
	repo := &serviceRepoStub{rateErr: store.ErrNoExchangeRate}
	pub := &publisherStub{publishErr: errors.New("broker down")}
	svc := NewService(repo, pub, Defaults{ExchangeRate: 3960})

	lead := &domain.Lead{CustomerName: "B", Phone: "0909", Order: sampleOrder()}
	if err := svc.SubmitLead(context.Background(), lead); err != nil {
		t.Fatalf("expected submission to succeed despite publish failure, got %v", err)
	}
	if repo.createdLead == nil {
		t.Fatal("expected lead to be persisted")
	}
}

func TestSubmitLead_InvalidOrderReturnsTypedError(t *testing.T) {
	repo := &serviceRepoStub{rateErr: store.ErrNoExchangeRate}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	order := sampleOrder()
	order.ShippingMethod = "air_freight"
	lead := &domain.Lead{CustomerName: "C", Phone: "0909", Order: order}

	err := svc.SubmitLead(context.Background(), lead)
	if !errors.Is(err, domain.ErrUnknownShippingMethod) {
		t.Fatalf("expected ErrUnknownShippingMethod, got %v", err)
	}
	if repo.createdLead != nil {
		t.Fatal("expected no lead persisted for invalid order")
	}
}

func TestUpdateExchangeRate_RejectsNonPositive(t *testing.T) {
	repo := &serviceRepoStub{}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	if err := svc.UpdateExchangeRate(context.Background(), 0); !errors.Is(err, ErrInvalidExchangeRate) {
		t.Fatalf("expected ErrInvalidExchangeRate for zero rate, got %v", err)
	}
	if repo.setRateCalled {
		t.Fatal("expected no write for rejected rate")
	}

	if err := svc.UpdateExchangeRate(context.Background(), 4025); err != nil {
		t.Fatalf("unexpected error for valid rate: %v", err)
	}
	if !repo.setRateCalled || repo.setRate != 4025 {
		t.Fatalf("expected rate 4025 to be stored, got called=%t rate=%f", repo.setRateCalled, repo.setRate)
	}
}

func TestReplaceServiceFeeTiers_RejectsGappedSchedule(t *testing.T) {
	repo := &serviceRepoStub{}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	gapped := []domain.ServiceFeeTier{
		{MinValue: 0, MaxValue: ptrFloat(1000), FeePercent: 5},
		{MinValue: 2000, FeePercent: 4},
	}
	err := svc.ReplaceServiceFeeTiers(context.Background(), domain.MethodTieuNgach, 70, gapped)
	if !errors.Is(err, ErrInvalidTierSchedule) {
		t.Fatalf("expected ErrInvalidTierSchedule for gapped schedule, got %v", err)
	}
	if repo.replacedFeeTiers != nil {
		t.Fatal("expected no write for rejected schedule")
	}
}

func TestReplaceServiceFeeTiers_StampsGroupOnRows(t *testing.T) {
	repo := &serviceRepoStub{}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	tiers := []domain.ServiceFeeTier{
		{MinValue: 0, MaxValue: ptrFloat(2_000_000), FeePercent: 5},
		{MinValue: 2_000_000, FeePercent: 4},
	}
	if err := svc.ReplaceServiceFeeTiers(context.Background(), domain.MethodChinhNgach, 80, tiers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.replacedFeeTiers) != 2 {
		t.Fatalf("expected 2 persisted tiers, got %d", len(repo.replacedFeeTiers))
	}
	for _, tier := range repo.replacedFeeTiers {
		if tier.ShippingMethod != domain.MethodChinhNgach || tier.DepositPercent != 80 {
			t.Fatalf("expected group stamped on every row, got %+v", tier)
		}
	}
}

func TestReplaceShippingRateTiers_ValidSchedulePersists(t *testing.T) {
	repo := &serviceRepoStub{}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	key := domain.ShippingRateGroupKey{
		Method:    domain.MethodChinhNgach,
		Warehouse: domain.WarehouseSaigon,
		Basis:     domain.BasisWeight,
		Subtype:   domain.SubtypeHeavy,
	}
	tiers := []domain.ShippingRateTier{
		{MinValue: 0, MaxValue: ptrFloat(100), PricePerUnit: 20000},
		{MinValue: 100, PricePerUnit: 18000},
	}
	if err := svc.ReplaceShippingRateTiers(context.Background(), key, tiers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.replacedRateTiers) != 2 {
		t.Fatalf("expected 2 persisted tiers, got %d", len(repo.replacedRateTiers))
	}
	for _, tier := range repo.replacedRateTiers {
		if tier.Warehouse != domain.WarehouseSaigon || tier.Subtype != domain.SubtypeHeavy {
			t.Fatalf("expected group stamped on every row, got %+v", tier)
		}
	}
}

func TestReplaceServiceFeeTiers_AcceptsBoundedLastTier(t *testing.T) {
	repo := &serviceRepoStub{}
	svc := NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960})

	// Admin clients may submit the highest tier with a numeric max; the
	// schedule is read as unbounded above it.
	tiers := []domain.ServiceFeeTier{
		{MinValue: 0, MaxValue: ptrFloat(2_000_000), FeePercent: 5},
		{MinValue: 2_000_000, MaxValue: ptrFloat(10_000_000), FeePercent: 4},
	}
	if err := svc.ReplaceServiceFeeTiers(context.Background(), domain.MethodTieuNgach, 70, tiers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.replacedFeeTiers) != 2 {
		t.Fatalf("expected 2 persisted tiers, got %d", len(repo.replacedFeeTiers))
	}
}

func TestLoadPricingConfig_CarriesConfiguredFallbackRates(t *testing.T) {
	repo := &serviceRepoStub{rateErr: store.ErrNoExchangeRate}
	svc := NewService(repo, &publisherStub{}, Defaults{
		ExchangeRate:         3960,
		ServiceFeePercent:    9.5,
		ShippingRatePerKgVND: 22_000,
	})

	cfg := svc.LoadPricingConfig(context.Background())
	if cfg.Fallbacks.ServiceFeePercent != 9.5 {
		t.Fatalf("expected configured fee fallback 9.5, got %f", cfg.Fallbacks.ServiceFeePercent)
	}
	if cfg.Fallbacks.ShippingRatePerKgVND != 22_000 {
		t.Fatalf("expected configured shipping fallback 22000, got %f", cfg.Fallbacks.ShippingRatePerKgVND)
	}

	// The overrides survive the degraded path too.
	repo = &serviceRepoStub{rate: 4100, listErr: errors.New("connection refused")}
	svc = NewService(repo, &publisherStub{}, Defaults{ExchangeRate: 3960, ServiceFeePercent: 9.5})
	if cfg := svc.LoadPricingConfig(context.Background()); cfg.Fallbacks.ServiceFeePercent != 9.5 {
		t.Fatalf("expected configured fee fallback after storage error, got %f", cfg.Fallbacks.ServiceFeePercent)
	}
}

func ptrFloat(v float64) *float64 {
	return &v
}
