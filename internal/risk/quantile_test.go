package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestQuantile_InterpolatesBetweenOrderStatistics(t *testing.T) {
	// 250 values 0..249: the 1st percentile index is 0.01*249 = 2.49,
	// so the interpolated value is 2*0.51 + 3*0.49 = 2.49.
	values := make([]float64, 250)
	for i := range values {
		values[i] = float64(i)
	}

	assert.InDelta(t, 2.49, Quantile(values, 0.01), 1e-12)
	assert.InDelta(t, 0, Quantile(values, 0), 1e-12)
	assert.InDelta(t, 249, Quantile(values, 1), 1e-12)
	assert.InDelta(t, 124.5, Quantile(values, 0.5), 1e-12)
}

func TestQuantile_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 500)
	for i := range values {
		values[i] = rng.NormFloat64() * 100
	}

	want := Quantile(values, 0.01)

	shuffled := make([]float64, len(values))
	copy(shuffled, values)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assert.Equal(t, want, Quantile(shuffled, 0.01),
		"quantile is order-insensitive")
}

func TestQuantile_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestHistorical_MonotoneInConfidence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	window := make([]float64, 250)
	for i := range window {
		window[i] = rng.NormFloat64() * 10_000
	}

	// var(c2) >= var(c1) for c2 > c1 on the same window.
	previous := math.Inf(-1)
	for _, confidence := range []float64{0.90, 0.95, 0.975, 0.99, 0.995} {
		cfg := DefaultConfig()
		cfg.ConfidenceLevel = confidence

		estimate, err := NewHistorical(cfg).Estimate(window, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, estimate, previous,
			"VaR must not decrease as confidence rises (c=%.3f)", confidence)
		previous = estimate
	}
}

func TestHistorical_KnownTailValue(t *testing.T) {
	cfg := DefaultConfig() // window 250, confidence 0.99

	window := make([]float64, 250)
	for i := range window {
		window[i] = float64(i) - 50 // -50 .. 199
	}

	estimate, err := NewHistorical(cfg).Estimate(window, 0)
	require.NoError(t, err)

	// quantile(window, 0.01) = 2.49 - 50 = -47.51 → VaR = 47.51
	assert.InDelta(t, 47.51, estimate, 1e-12)
}

func TestHistorical_InsufficientWindow(t *testing.T) {
	cfg := DefaultConfig()

	_, err := NewHistorical(cfg).Estimate(make([]float64, cfg.WindowSize-1), 0)
	assert.ErrorIs(t, err, ErrInsufficientWindow)
}
