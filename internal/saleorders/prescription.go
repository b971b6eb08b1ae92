package saleorders

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var (
	powerStep = decimal.RequireFromString("0.25")
	sphLimit  = decimal.NewFromInt(30)
	cylLimit  = decimal.NewFromInt(10)
	addMax    = decimal.NewFromInt(4)
)

// EyeInput is the refraction for one eye. All fields are optional.
type EyeInput struct {
	Sph  *decimal.Decimal `json:"sph,omitempty"`
	Cyl  *decimal.Decimal `json:"cyl,omitempty"`
	Axis *int             `json:"axis,omitempty"`
	Add  *decimal.Decimal `json:"add,omitempty"`
}

// Validate checks ranges and quarter-diopter steps. eye prefixes messages.
func (e EyeInput) Validate(eye string) error {
	var err error
	if e.Sph != nil {
		err = multierr.Append(err, checkPower(eye+".sph", *e.Sph, sphLimit.Neg(), sphLimit))
	}
	if e.Cyl != nil {
		err = multierr.Append(err, checkPower(eye+".cyl", *e.Cyl, cylLimit.Neg(), cylLimit))
	}
	if e.Add != nil {
		err = multierr.Append(err, checkPower(eye+".add", *e.Add, decimal.Zero, addMax))
	}
	if e.Axis != nil && (*e.Axis < 0 || *e.Axis > 180) {
		err = multierr.Append(err, fmt.Errorf("%s.axis must be between 0 and 180", eye))
	}
	if e.Cyl != nil && !e.Cyl.IsZero() && e.Axis == nil {
		err = multierr.Append(err, fmt.Errorf("%s.axis is required when cyl is set", eye))
	}
	return err
}

func checkPower(field string, v, lo, hi decimal.Decimal) error {
	if v.LessThan(lo) || v.GreaterThan(hi) {
		return fmt.Errorf("%s must be between %s and %s", field, lo.StringFixed(2), hi.StringFixed(2))
	}
	if !v.Mod(powerStep).IsZero() {
		return fmt.Errorf("%s must be in steps of 0.25", field)
	}
	return nil
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: v.Round(2), Valid: true}
}

func fromNullable(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
