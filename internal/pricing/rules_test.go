package pricing

import (
	"testing"

	"github.com/nhaphang/quote-service/internal/domain"
)

func TestBuildConfig_GroupsAndSortsTiers(t *testing.T) {
	// Rows arrive unsorted and interleaved across groups, the way a flat
	// SELECT returns them.
	feeRows := []domain.ServiceFeeTier{
		{ShippingMethod: domain.MethodTieuNgach, DepositPercent: 70, MinValue: 2_000_000, MaxValue: nil, FeePercent: 4},
		{ShippingMethod: domain.MethodChinhNgach, DepositPercent: 80, MinValue: 0, MaxValue: nil, FeePercent: 3.5},
		{ShippingMethod: domain.MethodTieuNgach, DepositPercent: 70, MinValue: 0, MaxValue: upTo(2_000_000), FeePercent: 5},
	}
	rateRows := []domain.ShippingRateTier{
		{ShippingMethod: domain.MethodTieuNgach, Warehouse: domain.WarehouseHanoi, Basis: domain.BasisValue, MinValue: 2_000_000, MaxValue: nil, PricePerUnit: 23_000},
		{ShippingMethod: domain.MethodTieuNgach, Warehouse: domain.WarehouseHanoi, Basis: domain.BasisValue, MinValue: 0, MaxValue: upTo(2_000_000), PricePerUnit: 25_000},
	}

	cfg := BuildConfig(3960, feeRows, rateRows)

	if cfg.ExchangeRate != 3960 {
		t.Fatalf("exchange rate: got %v, want 3960", cfg.ExchangeRate)
	}

	fees := cfg.ServiceFeeGroup(domain.MethodTieuNgach, 70)
	if len(fees) != 2 {
		t.Fatalf("tieu_ngach/70 group: got %d tiers, want 2", len(fees))
	}
	if fees[0].MinValue != 0 || fees[1].MinValue != 2_000_000 {
		t.Fatalf("tiers not sorted ascending by min: %v, %v", fees[0].MinValue, fees[1].MinValue)
	}

	if got := cfg.ServiceFeeGroup(domain.MethodChinhNgach, 80); len(got) != 1 {
		t.Fatalf("chinh_ngach/80 group: got %d tiers, want 1", len(got))
	}
	if got := cfg.ServiceFeeGroup(domain.MethodChinhNgach, 70); got != nil {
		t.Fatalf("empty group must be nil, got %v", got)
	}

	rates := cfg.ShippingRateGroup(domain.MethodTieuNgach, domain.WarehouseHanoi, domain.BasisValue, "")
	if len(rates) != 2 || rates[0].PricePerUnit != 25_000 {
		t.Fatalf("value-basis group not grouped/sorted: %+v", rates)
	}
}

func TestValidatePartition(t *testing.T) {
	valid := []domain.ServiceFeeTier{
		feeTier(0, upTo(1000), 5),
		feeTier(1000, upTo(5000), 4),
		feeTier(5000, nil, 3),
	}
	if err := ValidatePartition(valid); err != nil {
		t.Fatalf("valid partition rejected: %v", err)
	}

	cases := []struct {
		name  string
		tiers []domain.ServiceFeeTier
	}{
		{"empty group", nil},
		{"first min nonzero", []domain.ServiceFeeTier{
			feeTier(100, nil, 5),
		}},
		{"gap", []domain.ServiceFeeTier{
			feeTier(0, upTo(1000), 5),
			feeTier(2000, nil, 4),
		}},
		{"overlap", []domain.ServiceFeeTier{
			feeTier(0, upTo(1000), 5),
			feeTier(500, nil, 4),
		}},
		{"unbounded tier not last", []domain.ServiceFeeTier{
			feeTier(0, nil, 5),
			feeTier(1000, upTo(5000), 4),
		}},
		{"inverted tier", []domain.ServiceFeeTier{
			feeTier(0, upTo(1000), 5),
			feeTier(1000, upTo(1000), 4),
			feeTier(2000, nil, 3),
		}},
	}
	for _, tc := range cases {
		if err := ValidatePartition(tc.tiers); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidatePartition_AcceptsBoundedLastTier(t *testing.T) {
	// A numeric max on the highest tier is fine; the schedule is read as
	// unbounded above it.
	tiers := []domain.ServiceFeeTier{
		feeTier(0, upTo(1000), 5),
		feeTier(1000, upTo(5000), 4),
	}
	if err := ValidatePartition(tiers); err != nil {
		t.Fatalf("bounded last tier rejected: %v", err)
	}
}

func TestBuildConfig_OpensBoundedLastTier(t *testing.T) {
	feeRows := []domain.ServiceFeeTier{
		{ShippingMethod: domain.MethodTieuNgach, DepositPercent: 70, MinValue: 0, MaxValue: upTo(1_000_000), FeePercent: 5},
		{ShippingMethod: domain.MethodTieuNgach, DepositPercent: 70, MinValue: 1_000_000, MaxValue: upTo(5_000_000), FeePercent: 4},
	}

	cfg := BuildConfig(3960, feeRows, nil)

	fees := cfg.ServiceFeeGroup(domain.MethodTieuNgach, 70)
	if len(fees) != 2 {
		t.Fatalf("got %d tiers, want 2", len(fees))
	}
	if fees[1].MaxValue != nil {
		t.Fatalf("highest tier must be open-ended, got max %v", *fees[1].MaxValue)
	}

	// Values beyond the stored bound resolve to the highest tier instead
	// of falling through to the fallback rate.
	tier, ok := ResolveTier(fees, 80_000_000)
	if !ok {
		t.Fatal("value above stored max did not resolve")
	}
	if tier.FeePercent != 4 {
		t.Fatalf("resolved fee percent: got %v, want 4", tier.FeePercent)
	}
}

func TestDefaultConfig_GroupsArePartitions(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ExchangeRate != DefaultExchangeRate {
		t.Fatalf("exchange rate: got %v, want %v", cfg.ExchangeRate, float64(DefaultExchangeRate))
	}
	if len(cfg.ServiceFeeTiers) == 0 || len(cfg.ShippingRateTiers) == 0 {
		t.Fatal("default config must carry both tier sets")
	}

	for key, tiers := range cfg.ServiceFeeTiers {
		if err := ValidatePartition(tiers); err != nil {
			t.Fatalf("service fee group %+v: %v", key, err)
		}
	}
	for key, tiers := range cfg.ShippingRateTiers {
		if err := ValidatePartition(tiers); err != nil {
			t.Fatalf("shipping rate group %+v: %v", key, err)
		}
	}

	// Every method/deposit pair the API accepts must have a fee schedule.
	for _, method := range []domain.ShippingMethod{domain.MethodTieuNgach, domain.MethodChinhNgach} {
		for _, deposit := range []int{domain.DepositPercent70, domain.DepositPercent80} {
			if cfg.ServiceFeeGroup(method, deposit) == nil {
				t.Fatalf("missing default fee schedule for %s/%d", method, deposit)
			}
		}
	}
}
