package impact

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateReferenceUsage(t *testing.T) {
	got, err := Calculate(UsageInput{MonthlyBagCount: 1000, AverageBagWeightGrams: 10})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	want := Estimate{
		MonthlyPlasticSavedKg:  10,
		AnnualPlasticSavedKg:   120,
		AnnualCarbonOffsetKg:   300,
		TreesEquivalent:        14,
		AnnualWaterSavedLiters: 2040,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestCalculateZeroInput(t *testing.T) {
	cases := []UsageInput{
		{},
		{MonthlyBagCount: 0, AverageBagWeightGrams: 12.5},
		{MonthlyBagCount: 500, AverageBagWeightGrams: 0},
	}
	for _, in := range cases {
		got, err := Calculate(in)
		if err != nil {
			t.Fatalf("calculate %+v: %v", in, err)
		}
		if got != (Estimate{}) {
			t.Fatalf("expected zero estimate for %+v, got %+v", in, got)
		}
	}
}

func TestCalculateDoublingBagsDoublesSavings(t *testing.T) {
	base, err := Calculate(UsageInput{MonthlyBagCount: 750, AverageBagWeightGrams: 8.4})
	if err != nil {
		t.Fatalf("calculate base: %v", err)
	}
	doubled, err := Calculate(UsageInput{MonthlyBagCount: 1500, AverageBagWeightGrams: 8.4})
	if err != nil {
		t.Fatalf("calculate doubled: %v", err)
	}

	pairs := []struct {
		name string
		a, b float64
	}{
		{"monthly", base.MonthlyPlasticSavedKg, doubled.MonthlyPlasticSavedKg},
		{"annual", base.AnnualPlasticSavedKg, doubled.AnnualPlasticSavedKg},
		{"carbon", base.AnnualCarbonOffsetKg, doubled.AnnualCarbonOffsetKg},
		{"water", base.AnnualWaterSavedLiters, doubled.AnnualWaterSavedLiters},
	}
	for _, p := range pairs {
		if math.Abs(p.b-2*p.a) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", p.name, 2*p.a, p.b)
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	in := UsageInput{MonthlyBagCount: 12345, AverageBagWeightGrams: 7.3}
	first, err := Calculate(in)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := Calculate(in)
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		if next != first {
			t.Fatalf("expected %+v, got %+v", first, next)
		}
	}
}

func TestCalculateRoundsTreesHalfUp(t *testing.T) {
	// 700 bags * 10g -> 84kg/yr -> 210kg CO2 -> 10 trees exactly.
	exact, _ := Calculate(UsageInput{MonthlyBagCount: 700, AverageBagWeightGrams: 10})
	if exact.TreesEquivalent != 10 {
		t.Fatalf("expected 10 trees, got %d", exact.TreesEquivalent)
	}

	// 10.5 trees worth of carbon rounds up.
	f := DefaultFactors()
	if got := f.TreesForCarbon(10.5 * CarbonKgPerTreeYear); got != 11 {
		t.Fatalf("expected 11 trees, got %d", got)
	}
	if got := f.TreesForCarbon(10.49 * CarbonKgPerTreeYear); got != 10 {
		t.Fatalf("expected 10 trees, got %d", got)
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		in     UsageInput
		field  string
		reason string
	}{
		{UsageInput{MonthlyBagCount: -1, AverageBagWeightGrams: 10}, "monthly_bag_count", ReasonNegative},
		{UsageInput{MonthlyBagCount: 10, AverageBagWeightGrams: -0.5}, "average_bag_weight_grams", ReasonNegative},
		{UsageInput{MonthlyBagCount: 10, AverageBagWeightGrams: math.NaN()}, "average_bag_weight_grams", ReasonNotFinite},
		{UsageInput{MonthlyBagCount: 10, AverageBagWeightGrams: math.Inf(1)}, "average_bag_weight_grams", ReasonNotFinite},
	}
	for _, tc := range cases {
		_, err := Calculate(tc.in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", tc.in, err)
		}
		if verr.Field != tc.field || verr.Reason != tc.reason {
			t.Fatalf("expected %s/%s, got %s/%s", tc.field, tc.reason, verr.Field, verr.Reason)
		}
	}
}

func TestFactorsCalculateUsesOverrides(t *testing.T) {
	f := DefaultFactors()
	f.WaterLitersPerPlasticKg = 20

	got, err := f.Calculate(UsageInput{MonthlyBagCount: 1000, AverageBagWeightGrams: 10})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got.AnnualWaterSavedLiters != 2400 {
		t.Fatalf("expected 2400 liters, got %v", got.AnnualWaterSavedLiters)
	}
}

func TestFactorsValidate(t *testing.T) {
	if err := DefaultFactors().Validate(); err != nil {
		t.Fatalf("default factors invalid: %v", err)
	}
	f := DefaultFactors()
	f.CarbonKgPerTreeYear = 0
	if err := f.Validate(); err == nil {
		t.Fatalf("expected zero tree factor to be rejected")
	}
}

func TestCalculateRejectsUnrepresentableEstimate(t *testing.T) {
	cases := []UsageInput{
		{MonthlyBagCount: math.MaxInt64, AverageBagWeightGrams: math.MaxFloat64 / 1e10},
		{MonthlyBagCount: math.MaxInt64, AverageBagWeightGrams: 1e10},
	}
	for _, in := range cases {
		got, err := Calculate(in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %+v (%v)", in, got, err)
		}
		if verr.Reason != ReasonOutOfRange {
			t.Fatalf("expected %s, got %s", ReasonOutOfRange, verr.Reason)
		}
	}

	got, err := Calculate(UsageInput{MonthlyBagCount: 1_000_000_000, AverageBagWeightGrams: 1000})
	if err != nil {
		t.Fatalf("calculate large usage: %v", err)
	}
	if got.TreesEquivalent <= 0 {
		t.Fatalf("expected positive trees, got %d", got.TreesEquivalent)
	}
}

func TestTreesForCarbonSaturates(t *testing.T) {
	f := DefaultFactors()
	if got := f.TreesForCarbon(math.MaxFloat64); got != math.MaxInt64 {
		t.Fatalf("expected saturation, got %d", got)
	}
	if got := f.TreesForCarbon(42); got != 2 {
		t.Fatalf("expected 2 trees, got %d", got)
	}
}
