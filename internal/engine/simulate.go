package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skipulag/vegvisir/internal/catalog"
)

// SimulationParams configures one robustness run.
type SimulationParams struct {
	// Alpha is the symmetric Dirichlet concentration. Small alpha samples
	// near the simplex corners (strong single-goal preferences); alpha=1 is
	// uniform over the simplex.
	Alpha  float64
	Trials int
	// Seed fixes the whole run: the same seed, catalog, and trial count
	// reproduce bit-identical win fractions regardless of worker count.
	Seed    uint64
	Workers int
	// BatchSize is the number of trials per RNG stream; also the
	// cancellation granularity. Defaults to 512.
	BatchSize int
}

const defaultBatchSize = 512

// SimulationResult is the win tally of a robustness run.
type SimulationResult struct {
	Alpha        float64            `json:"alpha"`
	Trials       int                `json:"trials"`
	Seed         uint64             `json:"seed"`
	Wins         map[string]int     `json:"wins"`
	WinFractions map[string]float64 `json:"win_fractions"`
}

// Simulate stress-tests the ranking against preference uncertainty: each
// trial draws a weight vector from Dirichlet(alpha) over the goal simplex,
// reruns the ranking, and tallies the winner. Trials are independent;
// batches run in parallel with a private RNG stream each, and the
// commutative tally merge makes the result independent of scheduling.
func (e *Engine) Simulate(ctx context.Context, p SimulationParams) (*SimulationResult, error) {
	if !(p.Alpha > 0) || math.IsInf(p.Alpha, 0) {
		return nil, &catalog.ConfigurationError{Kind: "simulation", Invariant: "alpha must be a positive finite number"}
	}
	if p.Trials <= 0 {
		return nil, &catalog.ConfigurationError{Kind: "simulation", Invariant: "trials must be positive"}
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultBatchSize
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}

	nScenarios := len(e.cal.scenarioIDs)
	nGoals := len(e.cal.goalIDs)
	wins := make([]int, nScenarios)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)

	nBatches := (p.Trials + p.BatchSize - 1) / p.BatchSize
	for b := 0; b < nBatches; b++ {
		batch := b
		size := p.BatchSize
		if batch == nBatches-1 {
			size = p.Trials - batch*p.BatchSize
		}
		g.Go(func() error {
			// Cancellation is checked per batch, not per trial.
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// Each batch owns a deterministic RNG stream keyed by its index,
			// so the merged tally does not depend on which worker ran it.
			rng := rand.New(rand.NewPCG(p.Seed, uint64(batch)))
			local := make([]int, nScenarios)
			wvec := make([]float64, nGoals)
			for t := 0; t < size; t++ {
				sampleDirichlet(rng, p.Alpha, wvec)
				local[e.winner(wvec)]++
			}

			mu.Lock()
			for i, n := range local {
				wins[i] += n
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &SimulationResult{
		Alpha:        p.Alpha,
		Trials:       p.Trials,
		Seed:         p.Seed,
		Wins:         make(map[string]int, nScenarios),
		WinFractions: make(map[string]float64, nScenarios),
	}
	for i, sid := range e.cal.scenarioIDs {
		res.Wins[sid] = wins[i]
		res.WinFractions[sid] = float64(wins[i]) / float64(p.Trials)
	}
	return res, nil
}

// sampleDirichlet fills out with one draw from a symmetric Dirichlet(alpha)
// over the simplex: independent Gamma(alpha) draws normalized by their sum.
func sampleDirichlet(rng *rand.Rand, alpha float64, out []float64) {
	sum := 0.0
	for i := range out {
		g := sampleGamma(rng, alpha)
		out[i] = g
		sum += g
	}
	if sum == 0 {
		// All draws underflowed (tiny alpha); fall back to a uniform point.
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return
	}
	for i := range out {
		out[i] /= sum
	}
}

// sampleGamma draws from Gamma(alpha, 1) via Marsaglia-Tsang squeeze
// rejection, with the standard U^(1/alpha) boost for alpha < 1.
func sampleGamma(rng *rand.Rand, alpha float64) float64 {
	if alpha < 1 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(rng, alpha+1) * math.Pow(u, 1/alpha)
	}

	d := alpha - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
