package saleorders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ip(v int) *int { return &v }

func TestEyeInputValidate(t *testing.T) {
	cases := []struct {
		name   string
		in     EyeInput
		errors int
	}{
		{"empty", EyeInput{}, 0},
		{"plano sphere", EyeInput{Sph: dp("0")}, 0},
		{"full", EyeInput{Sph: dp("-2.75"), Cyl: dp("-1.25"), Axis: ip(90), Add: dp("2.00")}, 0},
		{"limits", EyeInput{Sph: dp("30"), Cyl: dp("-10"), Axis: ip(180), Add: dp("4")}, 0},
		{"sph out of range", EyeInput{Sph: dp("30.25")}, 1},
		{"sph off step", EyeInput{Sph: dp("-1.10")}, 1},
		{"cyl without axis", EyeInput{Cyl: dp("-0.50")}, 1},
		{"zero cyl needs no axis", EyeInput{Cyl: dp("0")}, 0},
		{"axis range", EyeInput{Cyl: dp("1"), Axis: ip(181)}, 1},
		{"negative add", EyeInput{Add: dp("-0.25")}, 1},
		{"several", EyeInput{Sph: dp("31"), Cyl: dp("0.3"), Add: dp("5")}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate("right")
			assert.Len(t, multierr.Errors(err), tc.errors)
		})
	}

	err := EyeInput{Sph: dp("-1.10")}.Validate("left")
	assert.EqualError(t, err, "left.sph must be in steps of 0.25")
}
