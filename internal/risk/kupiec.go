package risk

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateSample indicates a Kupiec test over an empty backtest
// table — the proportion-of-failures statistic is undefined at n = 0.
var ErrDegenerateSample = errors.New("degenerate sample: kupiec test requires at least one observation")

// KupiecResult holds the proportion-of-failures (POF) likelihood-ratio
// test for one VaR method over one backtest run.
type KupiecResult struct {
	Method       Method  `json:"method"`
	Observations int     `json:"n_observations"`
	Breaches     int     `json:"n_breaches"`
	ExpectedRate float64 `json:"expected_rate"`
	ObservedRate float64 `json:"observed_rate"`
	LRStatistic  float64 `json:"likelihood_ratio_statistic"`
	PValue       float64 `json:"p_value"`
}

// Kupiec computes the POF likelihood-ratio statistic
//
//	LR = -2 ln[ (1-p)^(n-x) p^x / ((1-x/n)^(n-x) (x/n)^x) ]
//
// for x breaches in n observations against target failure rate p, with
// the standard limiting-case convention that (x/n)^x and (1-x/n)^(n-x)
// are taken as 1 when x = 0 or x = n. The p-value comes from the
// chi-squared(df=1) approximation. x = 0 and x = n are valid inputs;
// only n = 0 is an error.
func Kupiec(method Method, observations, breaches int, targetRate float64) (KupiecResult, error) {
	if observations == 0 {
		return KupiecResult{}, fmt.Errorf("kupiec %s: %w", method, ErrDegenerateSample)
	}
	if breaches < 0 || breaches > observations {
		return KupiecResult{}, fmt.Errorf("kupiec %s: breaches %d out of range [0,%d]",
			method, breaches, observations)
	}
	if targetRate <= 0 || targetRate >= 1 {
		return KupiecResult{}, fmt.Errorf("kupiec %s: target rate must be in (0,1), got %.6f",
			method, targetRate)
	}

	n := float64(observations)
	x := float64(breaches)
	observed := x / n

	// Log-likelihood under H0 (breach probability = targetRate).
	logNull := (n-x)*math.Log(1-targetRate) + x*math.Log(targetRate)

	// Log-likelihood under the observed breach rate; x = 0 and x = n
	// terms drop out rather than producing log(0).
	var logAlt float64
	if breaches > 0 {
		logAlt += x * math.Log(observed)
	}
	if breaches < observations {
		logAlt += (n - x) * math.Log(1-observed)
	}

	lr := -2 * (logNull - logAlt)
	if lr < 0 {
		lr = 0 // floating-point noise when observed == target
	}

	chi2 := distuv.ChiSquared{K: 1}
	return KupiecResult{
		Method:       method,
		Observations: observations,
		Breaches:     breaches,
		ExpectedRate: targetRate,
		ObservedRate: observed,
		LRStatistic:  lr,
		PValue:       chi2.Survival(lr),
	}, nil
}
