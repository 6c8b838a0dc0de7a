// Package impact converts a customer's monthly bag usage into the environmental
// savings of switching those bags to biodegradable ones.
package impact

import (
	"fmt"
	"math"
)

const (
	GramsPerKilogram = 1000.0
	MonthsPerYear    = 12.0

	// CarbonKgPerPlasticKg is the CO2 avoided per kilogram of plastic not produced.
	CarbonKgPerPlasticKg = 2.5
	// CarbonKgPerTreeYear is the CO2 one mature tree absorbs in a year.
	CarbonKgPerTreeYear = 21.0
	// WaterLitersPerPlasticKg is the water used to produce one kilogram of plastic.
	WaterLitersPerPlasticKg = 17.0
)

type UsageInput struct {
	MonthlyBagCount       int64   `json:"monthly_bag_count" form:"monthly_bag_count"`
	AverageBagWeightGrams float64 `json:"average_bag_weight_grams" form:"average_bag_weight_grams"`
}

type Estimate struct {
	MonthlyPlasticSavedKg  float64 `json:"monthly_plastic_saved_kg"`
	AnnualPlasticSavedKg   float64 `json:"annual_plastic_saved_kg"`
	AnnualCarbonOffsetKg   float64 `json:"annual_carbon_offset_kg"`
	TreesEquivalent        int64   `json:"trees_equivalent"`
	AnnualWaterSavedLiters float64 `json:"annual_water_saved_liters"`
}

// Factors holds the conversion factors used by Calculate.
type Factors struct {
	GramsPerKilogram        float64 `mapstructure:"gramsPerKilogram" json:"grams_per_kilogram"`
	MonthsPerYear           float64 `mapstructure:"monthsPerYear" json:"months_per_year"`
	CarbonKgPerPlasticKg    float64 `mapstructure:"carbonKgPerPlasticKg" json:"carbon_kg_per_plastic_kg"`
	CarbonKgPerTreeYear     float64 `mapstructure:"carbonKgPerTreeYear" json:"carbon_kg_per_tree_year"`
	WaterLitersPerPlasticKg float64 `mapstructure:"waterLitersPerPlasticKg" json:"water_liters_per_plastic_kg"`
}

func DefaultFactors() Factors {
	return Factors{
		GramsPerKilogram:        GramsPerKilogram,
		MonthsPerYear:           MonthsPerYear,
		CarbonKgPerPlasticKg:    CarbonKgPerPlasticKg,
		CarbonKgPerTreeYear:     CarbonKgPerTreeYear,
		WaterLitersPerPlasticKg: WaterLitersPerPlasticKg,
	}
}

// Validate rejects factors that would divide by zero or flip signs.
func (f Factors) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"gramsPerKilogram", f.GramsPerKilogram},
		{"monthsPerYear", f.MonthsPerYear},
		{"carbonKgPerPlasticKg", f.CarbonKgPerPlasticKg},
		{"carbonKgPerTreeYear", f.CarbonKgPerTreeYear},
		{"waterLitersPerPlasticKg", f.WaterLitersPerPlasticKg},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value <= 0 {
			return fmt.Errorf("impact factor %s must be a positive number", c.name)
		}
	}
	return nil
}

// Calculate estimates savings with the default factors.
func Calculate(in UsageInput) (Estimate, error) {
	return DefaultFactors().Calculate(in)
}

// Calculate estimates savings for the given usage. Negative or non-finite
// input is rejected; zero input yields a zero estimate.
func (f Factors) Calculate(in UsageInput) (Estimate, error) {
	if err := in.Validate(); err != nil {
		return Estimate{}, err
	}

	monthly := float64(in.MonthlyBagCount) * in.AverageBagWeightGrams / f.GramsPerKilogram
	annual := monthly * f.MonthsPerYear
	carbon := annual * f.CarbonKgPerPlasticKg
	trees := carbon / f.CarbonKgPerTreeYear
	water := annual * f.WaterLitersPerPlasticKg

	for _, v := range []float64{monthly, annual, carbon, water} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Estimate{}, &ValidationError{Field: "usage", Reason: ReasonOutOfRange}
		}
	}
	if math.Round(trees) >= maxTrees {
		return Estimate{}, &ValidationError{Field: "usage", Reason: ReasonOutOfRange}
	}

	return Estimate{
		MonthlyPlasticSavedKg:  monthly,
		AnnualPlasticSavedKg:   annual,
		AnnualCarbonOffsetKg:   carbon,
		TreesEquivalent:        roundHalfUp(trees),
		AnnualWaterSavedLiters: water,
	}, nil
}

// TreesForCarbon converts an absolute carbon offset to whole trees.
func (f Factors) TreesForCarbon(carbonKg float64) int64 {
	if carbonKg <= 0 || math.IsNaN(carbonKg) {
		return 0
	}
	trees := math.Round(carbonKg / f.CarbonKgPerTreeYear)
	if trees >= maxTrees {
		return math.MaxInt64
	}
	return int64(trees)
}

// maxTrees is 2^63, the first float64 that does not fit in an int64.
const maxTrees = float64(math.MaxInt64)

// roundHalfUp assumes v >= 0, where math.Round matches half-up.
func roundHalfUp(v float64) int64 {
	return int64(math.Round(v))
}
