package risk

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MonteCarlo estimates VaR by simulating next-day PnL outcomes and
// taking the empirical tail quantile of the simulated distribution.
//
// Every call derives a fresh RNG from the run seed and the evaluation
// index, so days never share generator state: results are bit-identical
// across reruns and independent of call order or worker count.
type MonteCarlo struct {
	cfg *Config
}

// NewMonteCarlo creates a Monte Carlo VaR estimator.
func NewMonteCarlo(cfg *Config) *MonteCarlo {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &MonteCarlo{cfg: cfg}
}

func (m *MonteCarlo) Method() Method { return MethodMonteCarlo }

// Estimate simulates SimulationCount next-day PnL values under the
// configured sampling model and returns -quantile(samples, 1-confidence)
// as a positive loss magnitude.
func (m *MonteCarlo) Estimate(window []float64, index int) (float64, error) {
	if len(window) < m.cfg.WindowSize {
		return 0, fmt.Errorf("monte carlo estimator: %w (got %d, need %d)",
			ErrInsufficientWindow, len(window), m.cfg.WindowSize)
	}

	src := rand.NewSource(deriveSeed(m.cfg.RandomSeed, index))
	samples := make([]float64, m.cfg.SimulationCount)

	switch m.cfg.SamplingModel {
	case SamplingNormal:
		mu, sigma := stat.MeanStdDev(window, nil)
		if !(sigma > 0) {
			// Constant window: the distribution collapses to a point
			// mass at mu. Valid output, not an error.
			for i := range samples {
				samples[i] = mu
			}
			break
		}
		dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
		for i := range samples {
			samples[i] = dist.Rand()
		}

	case SamplingBootstrap:
		rng := rand.New(src)
		for i := range samples {
			samples[i] = window[rng.Intn(len(window))]
		}

	default:
		return 0, fmt.Errorf("monte carlo estimator: unknown sampling model %q", m.cfg.SamplingModel)
	}

	return -Quantile(samples, 1-m.cfg.ConfidenceLevel), nil
}
