package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/xtding233/havensim/internal/attack"
	"github.com/xtding233/havensim/internal/deck"
	"github.com/xtding233/havensim/internal/deckfile"
	"github.com/xtding233/havensim/internal/history"
	"github.com/xtding233/havensim/internal/report"
	"github.com/xtding233/havensim/internal/server"
)

var ErrDeckFailed = errors.New("one or more decks failed")

// runner carries the per-invocation collaborators.
type runner struct {
	opts   Options
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
	store  *history.Store
	remote *server.Client
}

// Run simulates every requested deck and writes reports to out. A deck that
// cannot be loaded or simulated is reported on errOut and skipped; Run then
// returns ErrDeckFailed after the remaining decks have been processed.
func Run(ctx context.Context, opts Options, out, errOut io.Writer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	r := &runner{opts: opts, out: out, errOut: errOut, log: log}

	if opts.Config.HistoryDB != "" {
		store, err := history.Open(ctx, opts.Config.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		r.store = store
	}
	if opts.HistoryList > 0 {
		return r.listHistory(ctx)
	}
	if opts.Remote != "" {
		client, err := server.Dial(opts.Remote)
		if err != nil {
			return err
		}
		defer client.Close()
		r.remote = client
	}

	failed := 0
	for _, name := range opts.Builtins {
		if !r.process(ctx, "builtin:"+name, func() ([]deck.Group, error) { return deckfile.Builtin(name) }) {
			failed++
		}
	}
	for _, p := range opts.Paths {
		if !r.process(ctx, p, func() ([]deck.Group, error) { return deckfile.Load(p) }) {
			failed++
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if opts.Watch {
		r.log.Info("watching", zap.Strings("paths", opts.Paths), zap.Duration("interval", opts.Config.WatchInterval))
		w := deckfile.NewFileWatcher(opts.Paths, opts.Config.WatchInterval, func(p string) {
			r.log.Info("deck changed", zap.String("path", p))
			r.process(ctx, p, func() ([]deck.Group, error) { return deckfile.Load(p) })
		})
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrDeckFailed, failed, len(opts.Builtins)+len(opts.Paths))
	}
	return nil
}

// process loads, simulates and reports one deck. It reports whether the deck succeeded.
func (r *runner) process(ctx context.Context, label string, load func() ([]deck.Group, error)) bool {
	groups, err := load()
	if err != nil {
		fmt.Fprintf(r.errOut, "%s: %v\n", label, err)
		return false
	}
	res, err := r.simulate(ctx, groups)
	if err != nil {
		fmt.Fprintf(r.errOut, "%s: %v\n", label, err)
		return false
	}
	if err := report.Render(r.out, label, res); err != nil {
		r.log.Error("write report", zap.Error(err))
		return false
	}
	if r.opts.Verbose {
		if err := report.RenderStats(r.out, res); err != nil {
			r.log.Error("write stats", zap.Error(err))
			return false
		}
	}
	r.log.Info("deck done",
		zap.String("deck", label),
		zap.Int("attacks", res.Attacks()),
		zap.Uint64("seed", res.Seed),
		zap.Duration("elapsed", res.Elapsed))

	if r.store != nil {
		id, err := r.store.Save(ctx, label, res)
		if err != nil {
			r.log.Warn("save run", zap.String("deck", label), zap.Error(err))
		} else {
			r.log.Info("run saved", zap.String("id", id))
		}
	}
	return true
}

func (r *runner) simulate(ctx context.Context, groups []deck.Group) (attack.Result, error) {
	cfg := r.opts.Config
	strategy, err := deck.ParseStrategy(cfg.Engine)
	if err != nil {
		return attack.Result{}, err
	}
	if r.remote == nil {
		return attack.Run(ctx, attack.Params{
			Groups:     groups,
			Iterations: cfg.Iterations,
			Seed:       cfg.Seed,
			Strategy:   strategy,
			Parallel:   cfg.Parallel,
			Logger:     r.log,
		})
	}
	resp, err := r.remote.Simulate(ctx, server.Request{
		Deck:       groups,
		Iterations: cfg.Iterations,
		Seed:       cfg.Seed,
		Engine:     string(strategy),
		Parallel:   cfg.Parallel,
	})
	if err != nil {
		return attack.Result{}, err
	}
	return resultFromResponse(groups, resp)
}

// resultFromResponse rebuilds a Result from a daemon reply so it renders like a local run.
func resultFromResponse(groups []deck.Group, resp server.Response) (attack.Result, error) {
	cards := deck.Distinct(groups)
	if !slices.Equal(cards, resp.Cards) {
		return attack.Result{}, fmt.Errorf("daemon reported cards %v, deck has %v", resp.Cards, cards)
	}
	res := attack.Result{
		Seed:       resp.Seed,
		Strategy:   deck.Strategy(resp.Engine),
		Iterations: resp.Iterations,
		Cards:      cards,
		Elapsed:    time.Duration(resp.ElapsedMS) * time.Millisecond,
	}
	for _, sr := range resp.Scenarios {
		game, err := attack.ParseGame(sr.Game)
		if err != nil {
			return attack.Result{}, err
		}
		kind, err := attack.ParseKind(sr.Kind)
		if err != nil {
			return attack.Result{}, err
		}
		t := attack.Tally{
			Scenario:   attack.Scenario{Game: game, Kind: kind},
			Attacks:    sr.Attacks,
			Counts:     make(map[deck.Card]int, len(cards)),
			Draws:      attack.Stats{Mean: sr.MeanDraws},
			Reshuffles: sr.Reshuffles,
		}
		if len(sr.Counts) != len(cards) {
			return attack.Result{}, fmt.Errorf("daemon reported %d counts for %s/%s, deck has %d cards",
				len(sr.Counts), sr.Game, sr.Kind, len(cards))
		}
		for i, c := range cards {
			if sr.Counts[i] > 0 {
				t.Counts[c] = sr.Counts[i]
			}
		}
		res.Tallies = append(res.Tallies, t)
	}
	return res, nil
}

func (r *runner) listHistory(ctx context.Context) error {
	runs, err := r.store.List(ctx, r.opts.HistoryList)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Fprintf(r.out, "%s  %s  %-30s  seed=%-20d  %-11s  %d attacks in %.3f sec\n",
			run.ID, run.CreatedAt.Format(time.RFC3339), run.Path, run.Seed, run.Engine,
			run.Attacks, run.Elapsed.Seconds())
	}
	return nil
}
