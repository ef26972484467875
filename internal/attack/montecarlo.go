package attack

import (
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/havensim/internal/deck"
)

var ErrNoIterations = errors.New("iterations must be >= 1")

const (
	// attacks logged at debug level at the start of each scenario
	traceAttacks = 3
	// how often the attack loop checks for cancellation
	cancelCheckEvery = 4096
)

var tracer = otel.Tracer("github.com/xtding233/havensim/internal/attack")

// Params describes one Monte Carlo run over a deck.
type Params struct {
	Groups     []deck.Group
	Iterations int    // attacks per scenario
	Seed       uint64 // 0 draws a fresh seed, reported in Result.Seed
	Strategy   deck.Strategy
	// Parallel runs the scenarios concurrently. Results do not depend on it.
	Parallel bool
	Logger   *zap.Logger
}

// Stats summarizes an integer sample.
type Stats struct {
	Mean   float64
	Var    float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
}

// Tally is the outcome of simulating one scenario.
type Tally struct {
	Scenario   Scenario
	Attacks    int
	Counts     map[deck.Card]int // result card -> times chosen
	Draws      Stats             // cards drawn per attack
	Reshuffles int               // attacks that witnessed a terminal card
}

// Count returns how often c was the result.
func (t Tally) Count(c deck.Card) int { return t.Counts[c] }

// Fraction converts a count into a share of this scenario's attacks.
func (t Tally) Fraction(n int) float64 {
	if t.Attacks == 0 {
		return 0
	}
	return float64(n) / float64(t.Attacks)
}

// Probability is the empirical chance that c is the result.
func (t Tally) Probability(c deck.Card) float64 { return t.Fraction(t.Counts[c]) }

func (t Tally) sumWhere(keep func(deck.Card) bool) int {
	n := 0
	for c, k := range t.Counts {
		if keep(c) {
			n += k
		}
	}
	return n
}

// Positive counts results with value > 0.
func (t Tally) Positive() int { return t.sumWhere(func(c deck.Card) bool { return c.Value > 0 }) }

// NonNegative counts results with value >= 0.
func (t Tally) NonNegative() int { return t.sumWhere(func(c deck.Card) bool { return c.Value >= 0 }) }

// Negative counts results with value < 0. Misses are included.
func (t Tally) Negative() int { return t.sumWhere(func(c deck.Card) bool { return c.Value < 0 }) }

// Misses counts results carrying the miss sentinel.
func (t Tally) Misses() int { return t.sumWhere(deck.Card.IsMiss) }

// MeanValue is the average result value over attacks that did not miss.
func (t Tally) MeanValue() float64 {
	sum, n := 0, 0
	for c, k := range t.Counts {
		if c.IsMiss() {
			continue
		}
		sum += c.Value * k
		n += k
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Result is a finished run: one Tally per scenario, in Scenarios() order.
type Result struct {
	Seed       uint64
	Strategy   deck.Strategy
	Iterations int
	Cards      []deck.Card // distinct cards of the deck, in deck order
	Tallies    []Tally
	Elapsed    time.Duration
}

// Attacks is the total number of attacks simulated across all scenarios.
func (r Result) Attacks() int {
	n := 0
	for _, t := range r.Tallies {
		n += t.Attacks
	}
	return n
}

// Tally returns the tally of one scenario.
func (r Result) Tally(sc Scenario) (Tally, bool) {
	for _, t := range r.Tallies {
		if t.Scenario == sc {
			return t, true
		}
	}
	return Tally{}, false
}

// drawHistogram counts attacks by the number of cards they drew; the index
// is the draw count. Chains are short, so it stays a handful of buckets no
// matter how many attacks are simulated.
type drawHistogram []int

func (h *drawHistogram) add(n int) {
	for len(*h) <= n {
		*h = append(*h, 0)
	}
	(*h)[n]++
}

// stats returns the population mean, variance and interpolated percentiles
// of the recorded draw counts.
func (h drawHistogram) stats() Stats {
	total, sum := 0, 0
	for v, k := range h {
		total += k
		sum += v * k
	}
	if total == 0 {
		return Stats{}
	}
	mean := float64(sum) / float64(total)
	var acc float64
	for v, k := range h {
		d := float64(v) - mean
		acc += d * d * float64(k)
	}
	variance := acc / float64(total)

	// nth returns the r-th smallest sample, counting from zero.
	nth := func(r int) float64 {
		for v, k := range h {
			if r < k {
				return float64(v)
			}
			r -= k
		}
		return float64(len(h) - 1)
	}
	percentile := func(p float64) float64 {
		pos := p * float64(total-1)
		i := int(math.Floor(pos))
		lo := nth(i)
		if f := pos - float64(i); f > 0 {
			return lo*(1-f) + nth(i+1)*f
		}
		return lo
	}

	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}

// simulateScenario runs iterations attacks of one scenario on sim.
func simulateScenario(ctx context.Context, sim *Simulator, sc Scenario, iterations int, log *zap.Logger) (Tally, error) {
	_, span := tracer.Start(ctx, "attack.scenario", trace.WithAttributes(
		attribute.String("game", sc.Game.String()),
		attribute.String("kind", sc.Kind.String()),
	))
	defer span.End()

	t := Tally{Scenario: sc, Counts: make(map[deck.Card]int)}
	var draws drawHistogram
	for i := 0; i < iterations; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				return Tally{}, err
			}
		}
		result, cards := sim.Attack(sc.Kind)
		t.Counts[result]++
		draws.add(len(cards))
		for _, c := range cards {
			if c.Terminal {
				t.Reshuffles++
				break
			}
		}
		if i < traceAttacks {
			log.Debug("attack",
				zap.Stringer("scenario", sc),
				zap.Stringer("result", result),
				zap.Stringers("drawn", cards))
		}
	}
	t.Attacks = iterations
	t.Draws = draws.stats()
	log.Debug("scenario done",
		zap.Stringer("scenario", sc),
		zap.Int("attacks", t.Attacks),
		zap.Int("reshuffles", t.Reshuffles),
		zap.Float64("mean_draws", t.Draws.Mean))
	return t, nil
}

// Run simulates every scenario Iterations times over the deck in p and
// returns the tallies.
func Run(ctx context.Context, p Params) (Result, error) {
	if p.Iterations <= 0 {
		return Result{}, ErrNoIterations
	}
	if err := deck.CheckPlayable(deck.Expand(p.Groups)); err != nil {
		return Result{}, err
	}
	strategy, err := deck.ParseStrategy(string(p.Strategy))
	if err != nil {
		return Result{}, err
	}
	p.Strategy = strategy
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	seed := p.Seed
	if seed == 0 {
		seed = deck.NewSeed()
	}

	ctx, span := tracer.Start(ctx, "attack.Run", trace.WithAttributes(
		attribute.Int("iterations", p.Iterations),
		attribute.String("engine", string(p.Strategy)),
		attribute.Bool("parallel", p.Parallel),
	))
	defer span.End()

	scenarios := Scenarios()
	sims := NewForScenarios(scenarios, p.Groups, p.Strategy, seed)
	tallies := make([]Tally, len(scenarios))
	start := time.Now()

	if p.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, sc := range scenarios {
			g.Go(func() error {
				t, err := simulateScenario(gctx, sims[i], sc, p.Iterations, log)
				if err != nil {
					return err
				}
				tallies[i] = t
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			span.RecordError(err)
			return Result{}, err
		}
	} else {
		for i, sc := range scenarios {
			t, err := simulateScenario(ctx, sims[i], sc, p.Iterations, log)
			if err != nil {
				span.RecordError(err)
				return Result{}, err
			}
			tallies[i] = t
		}
	}

	return Result{
		Seed:       seed,
		Strategy:   p.Strategy,
		Iterations: p.Iterations,
		Cards:      deck.Distinct(p.Groups),
		Tallies:    tallies,
		Elapsed:    time.Since(start),
	}, nil
}
