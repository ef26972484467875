package attack

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/xtding233/havensim/internal/deck"
)

const statIterations = 100000

// TestRunRollingDeckProbabilities checks result frequencies on the 16-card
// rolling deck against values derived analytically for each rule set.
func TestRunRollingDeckProbabilities(t *testing.T) {
	res, err := Run(context.Background(), Params{
		Groups:     rollingGroups(),
		Iterations: statIterations,
		Seed:       20240601,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	tests := []struct {
		sc   Scenario
		card deck.Card
		want float64
	}{
		{Scenario{Gloomhaven, Normal}, plus1, 0.50},
		{Scenario{Gloomhaven, Normal}, minus1, 0.50},
		{Scenario{Frosthaven, Normal}, plus1, 0.50},
		{Scenario{Gloomhaven, Advantage}, plus1, 0.60},
		{Scenario{Gloomhaven, Disadvantage}, minus1, 0.60},
		{Scenario{Frosthaven, Advantage}, plus1, 0.67},
		{Scenario{Frosthaven, Advantage}, zeroR, 0.19},
		{Scenario{Frosthaven, Disadvantage}, minus1, 0.67},
		{Scenario{Frosthaven, Disadvantage}, zeroR, 0.19},
	}
	for _, tt := range tests {
		tally, ok := res.Tally(tt.sc)
		if !ok {
			t.Fatalf("missing tally for %v", tt.sc)
		}
		got := tally.Probability(tt.card)
		if math.Abs(got-tt.want) > 0.02 {
			t.Errorf("%v P(%v) = %.4f, want %.2f ± 0.02", tt.sc, tt.card, got, tt.want)
		}
	}

	for _, sc := range []Scenario{
		{Gloomhaven, Normal}, {Frosthaven, Normal}, {Gloomhaven, Advantage}, {Gloomhaven, Disadvantage},
	} {
		tally, _ := res.Tally(sc)
		if n := tally.Count(zeroR); n != 0 {
			t.Errorf("%v returned a rolling card %d times", sc, n)
		}
	}
	if res.Attacks() != 6*statIterations {
		t.Errorf("Attacks = %d, want %d", res.Attacks(), 6*statIterations)
	}
}

// TestRunRejectionMatchesPermutation ensures both engines produce the same distribution.
func TestRunRejectionMatchesPermutation(t *testing.T) {
	run := func(s deck.Strategy) Result {
		res, err := Run(context.Background(), Params{
			Groups:     rollingGroups(),
			Iterations: 50000,
			Seed:       99,
			Strategy:   s,
		})
		if err != nil {
			t.Fatalf("Run(%s): %v", s, err)
		}
		return res
	}
	perm, rej := run(deck.StrategyPermutation), run(deck.StrategyRejection)
	if rej.Strategy != deck.StrategyRejection {
		t.Fatalf("Strategy = %q", rej.Strategy)
	}
	for i, sc := range Scenarios() {
		for _, c := range perm.Cards {
			a, b := perm.Tallies[i].Probability(c), rej.Tallies[i].Probability(c)
			if math.Abs(a-b) > 0.02 {
				t.Errorf("%v P(%v): permutation %.4f, rejection %.4f", sc, c, a, b)
			}
		}
	}
}

// TestRunParallelIsDeterministic ensures the concurrency mode does not change results.
func TestRunParallelIsDeterministic(t *testing.T) {
	groups := append(rollingGroups(), deck.Group{Tag: "miss", Value: deck.MissValue, Terminal: true, Count: 1})
	p := Params{Groups: groups, Iterations: 5000, Seed: 7}
	serial, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	p.Parallel = true
	parallel, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range serial.Tallies {
		s, q := serial.Tallies[i], parallel.Tallies[i]
		if s.Scenario != q.Scenario || s.Reshuffles != q.Reshuffles {
			t.Fatalf("tally %d differs: %+v vs %+v", i, s, q)
		}
		for c, n := range s.Counts {
			if q.Counts[c] != n {
				t.Fatalf("%v count(%v): serial %d, parallel %d", s.Scenario, c, n, q.Counts[c])
			}
		}
	}
}

func TestRunRandomSeedIsReported(t *testing.T) {
	res, err := Run(context.Background(), Params{Groups: rollingGroups(), Iterations: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Seed == 0 {
		t.Fatal("expected a generated seed")
	}
	if res.Strategy != deck.StrategyPermutation {
		t.Fatalf("default strategy = %q", res.Strategy)
	}
	if len(res.Cards) != 3 || res.Cards[0] != zeroR {
		t.Fatalf("Cards = %v", res.Cards)
	}
}

func TestRunErrors(t *testing.T) {
	if _, err := Run(context.Background(), Params{Groups: rollingGroups()}); !errors.Is(err, ErrNoIterations) {
		t.Fatalf("zero iterations: err = %v", err)
	}
	if _, err := Run(context.Background(), Params{Iterations: 10}); !errors.Is(err, deck.ErrEmptyDeck) {
		t.Fatalf("empty deck: err = %v", err)
	}
	allRolling := []deck.Group{{Tag: "0", Rolling: true, Count: 3}}
	if _, err := Run(context.Background(), Params{Groups: allRolling, Iterations: 10}); !errors.Is(err, deck.ErrNoSettlingCard) {
		t.Fatalf("all rolling: err = %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, parallel := range []bool{false, true} {
		_, err := Run(ctx, Params{Groups: rollingGroups(), Iterations: 1000, Seed: 1, Parallel: parallel})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("parallel=%v: err = %v, want context.Canceled", parallel, err)
		}
	}
}

func TestTallyAggregates(t *testing.T) {
	tally := Tally{
		Attacks: 10,
		Counts: map[deck.Card]int{
			plus1:  4,
			zeroR:  2,
			minus1: 3,
			miss:   1,
		},
	}
	if got := tally.Positive(); got != 4 {
		t.Errorf("Positive = %d", got)
	}
	if got := tally.NonNegative(); got != 6 {
		t.Errorf("NonNegative = %d", got)
	}
	if got := tally.Negative(); got != 4 {
		t.Errorf("Negative = %d", got)
	}
	if got := tally.Misses(); got != 1 {
		t.Errorf("Misses = %d", got)
	}
	if got := tally.Fraction(tally.Positive()); got != 0.4 {
		t.Errorf("Fraction = %v", got)
	}
	if got, want := tally.MeanValue(), 1.0/9.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanValue = %v, want %v", got, want)
	}
	if (Tally{}).Fraction(3) != 0 {
		t.Error("Fraction on empty tally should be 0")
	}
}

func histogramOf(samples ...int) drawHistogram {
	var h drawHistogram
	for _, n := range samples {
		h.add(n)
	}
	return h
}

func TestDrawHistogramStats(t *testing.T) {
	s := histogramOf(1, 5, 1, 2, 1).stats()
	if s.Mean != 2 {
		t.Errorf("Mean = %v", s.Mean)
	}
	if s.Var != 2.4 {
		t.Errorf("Var = %v", s.Var)
	}
	if s.P50 != 1 {
		t.Errorf("P50 = %v", s.P50)
	}
	// rank 3.6 sits between the samples 2 and 5
	if math.Abs(s.P90-3.8) > 1e-9 {
		t.Errorf("P90 = %v, want 3.8", s.P90)
	}
	if one := histogramOf(3).stats(); one.P50 != 3 || one.P99 != 3 || one.Var != 0 {
		t.Errorf("single sample = %+v", one)
	}
	if (drawHistogram(nil).stats() != Stats{}) {
		t.Error("empty histogram should give zero stats")
	}
}

func TestRunUnknownStrategy(t *testing.T) {
	_, err := Run(context.Background(), Params{Groups: rollingGroups(), Iterations: 1, Strategy: "bogo"})
	if !errors.Is(err, deck.ErrUnknownStrategy) {
		t.Fatalf("err = %v, want %v", err, deck.ErrUnknownStrategy)
	}
}
