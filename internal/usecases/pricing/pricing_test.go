package pricing

import (
	"math"
	"testing"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name       string
		monthlyUSD float64
		months     int
		fx         float64
		want       float64
	}{
		{
			// 30×(95+4)=2970; комиссия 0.03+0.001×30=0.06; 2970×1.06=3148.2; +750=3898.2 → 3900
			name:       "reference vector 30 usd one month at 95",
			monthlyUSD: 30,
			months:     1,
			fx:         95,
			want:       3900,
		},
		{
			// база 30 → 30×94=2820; ×1.06=2989.2; +750=3739.2 → 3740
			name:       "three months accumulate base",
			monthlyUSD: 10,
			months:     3,
			fx:         90,
			want:       3740,
		},
		{
			// база 60 → 60×104=6240; ×1.09=6801.6; +750=7551.6 → 7560
			name:       "larger base raises commission share",
			monthlyUSD: 5,
			months:     12,
			fx:         100,
			want:       7560,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePrice(tt.monthlyUSD, tt.months, tt.fx, DefaultDeltaRate, DefaultFixedFee)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePrice_ZeroGuards(t *testing.T) {
	assert.Zero(t, ComputePrice(30, 1, 0, DefaultDeltaRate, DefaultFixedFee))
	assert.Zero(t, ComputePrice(30, 1, -95, DefaultDeltaRate, DefaultFixedFee))
	assert.Zero(t, ComputePrice(0, 1, 95, DefaultDeltaRate, DefaultFixedFee))
	assert.Zero(t, ComputePrice(-10, 3, 95, DefaultDeltaRate, DefaultFixedFee))
}

func TestComputePrice_Rounding(t *testing.T) {
	// итог всегда кратен 10 и не меньше суммы до округления
	for _, usd := range []float64{1, 7.5, 13.99, 30, 49.9, 120} {
		for _, fx := range []float64{60, 79.3, 95, 101.7} {
			got := ComputePrice(usd, 1, fx, DefaultDeltaRate, DefaultFixedFee)

			require.Zero(t, math.Mod(got, 10), "usd=%v fx=%v", usd, fx)

			commission := 0.03 + 0.001*usd
			preRound := usd*(fx+DefaultDeltaRate)*(1+commission) + DefaultFixedFee
			require.GreaterOrEqual(t, got, preRound, "usd=%v fx=%v", usd, fx)
			require.Less(t, got-preRound, 10.0, "usd=%v fx=%v", usd, fx)
		}
	}
}

func TestComputePrice_MonotonicInBase(t *testing.T) {
	prev := 0.0
	for usd := 1.0; usd <= 200; usd += 1 {
		got := ComputePrice(usd, 1, 95, DefaultDeltaRate, DefaultFixedFee)
		require.GreaterOrEqual(t, got, prev, "usd=%v", usd)
		prev = got
	}
}

func TestComputePrice_Deterministic(t *testing.T) {
	first := ComputePrice(42.5, 9, 87.31, DefaultDeltaRate, DefaultFixedFee)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ComputePrice(42.5, 9, 87.31, DefaultDeltaRate, DefaultFixedFee))
	}
}

func TestCommissionPct(t *testing.T) {
	assert.InDelta(t, 0.06, CommissionPct(30), 1e-12)
	assert.InDelta(t, 0.03, CommissionPct(0), 1e-12)
	assert.InDelta(t, 0.13, CommissionPct(100), 1e-12)
}

func TestBuildQuote(t *testing.T) {
	quote := BuildQuote(30, domain.Plan1M, 95)

	require.NotNil(t, quote)
	assert.Equal(t, 95.0, quote.UsdToRub)
	assert.Equal(t, 1, quote.Months)
	assert.Equal(t, 30.0, quote.BaseUSD)
	assert.InDelta(t, 0.06, quote.CommissionPct, 1e-12)
	assert.InDelta(t, 2970, quote.BaseRub, 1e-9)
	assert.InDelta(t, 178.2, quote.CommissionRub, 1e-9)
	assert.Equal(t, 3900.0, quote.TotalRub)
	assert.False(t, quote.IsZero())
}

func TestBuildQuote_InvalidInputs(t *testing.T) {
	t.Run("zero rate", func(t *testing.T) {
		quote := BuildQuote(30, domain.Plan1M, 0)
		require.NotNil(t, quote)
		assert.True(t, quote.IsZero())
		assert.Equal(t, 30.0, quote.BaseUSD)
	})

	t.Run("negative price clamped", func(t *testing.T) {
		quote := BuildQuote(-5, domain.Plan3M, 95)
		require.NotNil(t, quote)
		assert.True(t, quote.IsZero())
		assert.Zero(t, quote.BaseUSD)
	})

	t.Run("unknown plan counts as one month", func(t *testing.T) {
		quote := BuildQuote(30, domain.Plan("weird"), 95)
		assert.Equal(t, 1, quote.Months)
		assert.Equal(t, 3900.0, quote.TotalRub)
	})
}
