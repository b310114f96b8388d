package repositories

import (
	"math"
	"testing"
)

func TestOverpayment(t *testing.T) {
	cases := []struct {
		name      string
		total     float64
		sum       float64
		amount    float64
		rejected  bool
		remaining float64
	}{
		{"exact payoff", 100, 100, 50, false, 0},
		{"within epsilon", 100, 100.0005, 50, false, 0},
		{"under total", 100, 60, 60, false, 0},
		{"first payment too large", 100, 110, 110, true, 100},
		{"second payment overshoots", 100, 110, 50, true, 40},
		{"update overshoots", 100, 110, 80, true, 70},
	}

	for _, tc := range cases {
		over := overpayment(tc.total, tc.sum, tc.amount)
		if (over != nil) != tc.rejected {
			t.Errorf("%s: rejected = %v, expected %v", tc.name, over != nil, tc.rejected)
			continue
		}
		if over != nil && math.Abs(over.Remaining-tc.remaining) > 0.0001 {
			t.Errorf("%s: remaining = %v, expected %v", tc.name, over.Remaining, tc.remaining)
		}
	}
}
