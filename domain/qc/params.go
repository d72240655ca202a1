package qc

import (
	"math"

	"crmqc/domain/core"
)

// Sampler draws the random factors for fill and correction. ports.Sampler
// satisfies it.
type Sampler interface {
	Uniform(min, max float64) float64
}

// FillParams controls FillEmpty
type FillParams struct {
	Min                float64 `json:"min"`
	Max                float64 `json:"max"`
	Offset             float64 `json:"offset"`
	Ratio              float64 `json:"ratio"`
	OverwriteFilled    bool    `json:"overwrite_filled"`
	ApplyRatioToFilled bool    `json:"apply_ratio_to_filled"`
}

// DefaultFillParams mirrors the operator panel defaults
func DefaultFillParams() FillParams {
	return FillParams{Min: 0.9, Max: 1.1, Offset: 0, Ratio: 1.0}
}

// Validate rejects non-finite values and an inverted factor range
func (p FillParams) Validate() error {
	if err := validateRange(p.Min, p.Max); err != nil {
		return err
	}
	if !finite(p.Offset) {
		return core.NewInvalidParamsError("offset", "must be finite")
	}
	if !finite(p.Ratio) {
		return core.NewInvalidParamsError("ratio", "must be finite")
	}
	return nil
}

// RangeParams is the factor range used when correcting outliers
type RangeParams struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate rejects non-finite values and an inverted range
func (p RangeParams) Validate() error {
	return validateRange(p.Min, p.Max)
}

func validateRange(min, max float64) error {
	if !finite(min) || !finite(max) {
		return core.NewInvalidParamsError("factor range", "must be finite")
	}
	if min > max {
		return core.NewInvalidParamsError("min", "exceeds max")
	}
	return nil
}

func validateFraction(fraction float64) error {
	if !finite(fraction) || fraction < 0 {
		return core.NewInvalidParamsError("range fraction", "must be a finite non-negative number")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round rounds v to the given number of decimal places
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
