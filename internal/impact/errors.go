package impact

import (
	"fmt"
	"math"
)

const (
	ReasonNegative  = "negative"
	ReasonNotFinite = "not_finite"
	// ReasonOutOfRange marks finite input whose estimate cannot be represented.
	ReasonOutOfRange = "out_of_range"
)

// ValidationError reports a usage input the estimator refuses to compute.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (in UsageInput) Validate() error {
	if in.MonthlyBagCount < 0 {
		return &ValidationError{Field: "monthly_bag_count", Reason: ReasonNegative}
	}
	if math.IsNaN(in.AverageBagWeightGrams) || math.IsInf(in.AverageBagWeightGrams, 0) {
		return &ValidationError{Field: "average_bag_weight_grams", Reason: ReasonNotFinite}
	}
	if in.AverageBagWeightGrams < 0 {
		return &ValidationError{Field: "average_bag_weight_grams", Reason: ReasonNegative}
	}
	return nil
}
