package negflo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		carry        bool
		limit        float64
		series       []float64
		want         []float64
		wantLeftover float64
	}{
		// Direction: where does the deficit of [1, -1] and [-1, 1] go?
		{"forward no later donor", Forward{}, true, 0, []float64{1, -1}, []float64{1, 0}, -1},
		{"forward later donor", Forward{}, true, 0, []float64{-1, 1}, []float64{0, 0}, 0},
		{"backward earlier donor", Backward{}, true, 0, []float64{1, -1}, []float64{0, 0}, 0},
		{"backward no earlier donor", Backward{}, true, 0, []float64{-1, 1}, []float64{0, 1}, -1},
		{"bidirectional earlier donor", Bidirectional{}, true, 0, []float64{1, -1}, []float64{0, 0}, 0},
		{"bidirectional later donor", Bidirectional{}, true, 0, []float64{-1, 1}, []float64{0, 0}, 0},

		// Carry against no-carry.
		{"forward carry", Forward{}, true, 0, []float64{-4, 1, 1, -1, 8, 0}, []float64{0, 0, 0, 0, 5, 0}, 0},
		{"forward no carry", Forward{}, false, 1, []float64{-4, 1, 1, -1, 8, 0}, []float64{0, 1, 1, 0, 7, 0}, 0},
		{"forward limit above donors", Forward{}, true, 2, []float64{-4, 1, 1, -1, 8, 0}, []float64{0, 1, 1, 0, 3, 0}, 0},
		{"forward single block", Forward{}, true, 2, []float64{-10, 8, 6, 2, 4, 10}, []float64{0, 5, 4, 2, 3, 6}, 0},
		{"backward carry", Backward{}, true, 2, []float64{-1, 0, 3, -2, 4, -1}, []float64{0, 0, 2, 0, 2, 0}, -1},
		{"backward no carry", Backward{}, false, 2, []float64{-1, 0, 3, -2, 4, -1}, []float64{0, 0, 2, 0, 3, 0}, 0},
		{"backward no carry keeps later block", Backward{}, false, 0, []float64{-4, 1, 1, -1, 8, 0}, []float64{0, 0, 0, 0, 8, 0}, 0},
		{"bidirectional larger side", Bidirectional{}, true, 0, []float64{-1, 0, 3, -2, 4, -1}, []float64{0, 0, 2, 0, 1, 0}, 0},

		// Global spreads one deficit over every donor.
		{"global", Global{}, true, 2, []float64{-10, 8, 6, 2, 4, 10}, []float64{0, 5, 4, 2, 3, 6}, 0},
		{"global non-contiguous donors", Global{}, true, 1, []float64{-1, 0, 3, -2, 4, -1}, []float64{0, 0, 1.4, 0, 1.6, 0}, 0},
		{"global no donors", Global{}, true, 2, []float64{-1, 1}, []float64{0, 1}, -1},
		{"global nothing to do", Global{}, true, 0, []float64{0, 4}, []float64{0, 4}, 0},

		// Degenerate input.
		{"empty", Forward{}, true, 0, []float64{}, []float64{}, 0},
		{"single positive", Backward{}, true, 0, []float64{5}, []float64{5}, 0},
		{"single negative forward", Forward{}, true, 0, []float64{-1}, []float64{0}, -1},
		{"single negative backward", Backward{}, true, 0, []float64{-1}, []float64{0}, -1},
		{"single negative bidirectional", Bidirectional{}, true, 0, []float64{-1}, []float64{0}, -1},
		{"single negative global", Global{}, true, 0, []float64{-1}, []float64{0}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := append([]float64(nil), tt.series...)
			pass := tt.policy.Smooth(series, tt.limit, tt.carry)

			assert.InDeltaSlice(t, tt.want, pass.Series, 1e-9)
			assert.InDelta(t, tt.wantLeftover, pass.Leftover, 1e-9)
		})
	}
}

func TestClip(t *testing.T) {
	series := []float64{-1, 2, -3, 0, 4}
	pass := Clip{}.Smooth(series, 10, true)

	assert.Equal(t, []float64{0, 2, 0, 0, 4}, pass.Series)
	assert.Equal(t, -4.0, pass.Clipped)
	assert.Zero(t, pass.Leftover)
	assert.Empty(t, pass.Events)

	again := Clip{}.Smooth(append([]float64(nil), pass.Series...), 10, true)
	assert.Equal(t, pass.Series, again.Series, "clip is idempotent")
	assert.Zero(t, again.Clipped)
}

func TestForwardEvents(t *testing.T) {
	pass := Forward{}.Smooth([]float64{-4, 1, 1, -1, 8, 0}, 1, false)
	require.Len(t, pass.Events, 2)

	first := pass.Events[0]
	assert.Equal(t, 1, first.Start)
	assert.Equal(t, 3, first.End)
	assert.Equal(t, 2, first.Donors)
	assert.Equal(t, -4.0, first.Deficit)
	assert.Equal(t, 0.0, first.Excess)
	assert.Equal(t, -4.0, first.Remaining)

	second := pass.Events[1]
	assert.Equal(t, 4, second.Start)
	assert.Equal(t, 5, second.End)
	assert.Equal(t, -1.0, second.Deficit)
	assert.Equal(t, 7.0, second.Excess)
	assert.Zero(t, second.Remaining)
	assert.Equal(t, 1.0, second.Absorbed())
}

func TestGlobalEventSpansDonors(t *testing.T) {
	pass := Global{}.Smooth([]float64{-1, 0, 3, -2, 4, -1}, 1, true)
	require.Len(t, pass.Events, 1)
	ev := pass.Events[0]
	assert.Equal(t, 2, ev.Start)
	assert.Equal(t, 5, ev.End)
	assert.Equal(t, 2, ev.Donors)
	assert.Equal(t, -4.0, ev.Deficit)
}

func TestBidirectionalPrefersLargerBlock(t *testing.T) {
	// The deficit sits between a small block and a large one.
	pass := Bidirectional{}.Smooth([]float64{2, -1, 0, 10}, 0, true)
	assert.InDeltaSlice(t, []float64{2, 0, 0, 9}, pass.Series, 1e-9)

	pass = Bidirectional{}.Smooth([]float64{10, -1, 0, 2}, 0, true)
	assert.InDeltaSlice(t, []float64{9, 0, 0, 2}, pass.Series, 1e-9)
}

func TestBidirectionalTieGoesRight(t *testing.T) {
	pass := Bidirectional{}.Smooth([]float64{4, -2, 4}, 0, true)
	assert.InDeltaSlice(t, []float64{4, 0, 2}, pass.Series, 1e-9)
}

// Every carrying policy conserves volume: what is not redistributed is
// reported as leftover. Donors never fall below the limit and values between
// zero and the limit are left alone.
func TestPolicyInvariants(t *testing.T) {
	policies := map[string]Policy{
		"global":        Global{},
		"forward":       Forward{},
		"backward":      Backward{},
		"bidirectional": Bidirectional{},
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for name, policy := range policies {
		t.Run(name, func(t *testing.T) {
			for trial := 0; trial < 200; trial++ {
				limit := float64(rng.IntN(3))
				before := make([]float64, 1+rng.IntN(40))
				for i := range before {
					before[i] = rng.Float64()*20 - 8
				}

				pass := policy.Smooth(append([]float64(nil), before...), limit, true)

				require.Len(t, pass.Series, len(before))
				assert.LessOrEqual(t, pass.Leftover, 0.0)
				assert.InDelta(t, sumOf(before), sumOf(pass.Series)+pass.Leftover, 1e-9*(1+sumAbs(before)))

				for i, v := range pass.Series {
					switch {
					case before[i] < 0:
						assert.Zero(t, v, "negative at %d is zeroed", i)
					case before[i] >= limit:
						assert.GreaterOrEqual(t, v, limit-1e-9, "donor at %d stays above limit", i)
						assert.LessOrEqual(t, v, before[i]+1e-9, "donor at %d only loses volume", i)
					default:
						assert.Equal(t, before[i], v, "value below limit at %d untouched", i)
					}
				}
			}
		})
	}
}

func TestNoCarryNeverGainsVolume(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, policy := range []Policy{Forward{}, Backward{}, Bidirectional{}} {
		for trial := 0; trial < 100; trial++ {
			before := make([]float64, 1+rng.IntN(30))
			for i := range before {
				before[i] = rng.Float64()*10 - 4
			}
			pass := policy.Smooth(append([]float64(nil), before...), 0, false)
			for _, v := range pass.Series {
				assert.GreaterOrEqual(t, v, 0.0)
			}
			assert.LessOrEqual(t, sumOf(pass.Series), sumPositive(before)+1e-9)
		}
	}
}

func sumAbs(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		if v < 0 {
			v = -v
		}
		s += v
	}
	return s
}

func sumPositive(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		if v > 0 {
			s += v
		}
	}
	return s
}
