package aggregate

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// newLabel marks a protocol with no week-ago data.
const newLabel = "new"

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// pctChange formats the relative change from prev to cur as "+12.0%". It
// returns nil when prev is missing or zero.
func pctChange(cur float64, prev *float64) *string {
	if prev == nil || *prev == 0 {
		return nil
	}
	s := fmt.Sprintf("%+.1f%%", round1((cur-*prev) / *prev * 100))
	return &s
}

// change7d is pctChange with the "new" label as its sentinel.
func change7d(cur int64, prev *int64) string {
	if prev == nil {
		return newLabel
	}
	p := float64(*prev)
	if s := pctChange(float64(cur), &p); s != nil {
		return *s
	}
	return newLabel
}

// share is part/total as a percentage rounded to one decimal. Shares of one
// total may sum slightly off 100.
func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromFloat(total))
	return pct.Round(1).InexactFloat64()
}
