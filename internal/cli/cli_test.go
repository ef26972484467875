package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xtding233/havensim/internal/deck"
	"github.com/xtding233/havensim/internal/server"
)

const rollingDeck = `[
  {"tag": "0", "value": 0, "rolling": true, "count": 6},
  {"tag": "+1", "value": 1, "rolling": false, "count": 5},
  {"tag": "-1", "value": -1, "rolling": false, "count": 5}
]`

func parse(t *testing.T, args ...string) (Options, error) {
	t.Helper()
	fs := flag.NewFlagSet("havensim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return ParseConfig(fs, args)
}

func writeDeck(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseConfigDefaults(t *testing.T) {
	opts, err := parse(t, "deck.json")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if opts.Config.Iterations != 100000 || opts.Config.Engine != "permutation" || opts.Config.Seed != 0 {
		t.Fatalf("unexpected config: %+v", opts.Config)
	}
	if len(opts.Paths) != 1 || opts.Paths[0] != "deck.json" {
		t.Fatalf("Paths = %v", opts.Paths)
	}
}

// TestParseConfigFlagsBeatEnv ensures only explicitly set flags override env.
func TestParseConfigFlagsBeatEnv(t *testing.T) {
	t.Setenv("HAVENSIM_ITERATIONS", "321")
	t.Setenv("HAVENSIM_ENGINE", "rejection")
	opts, err := parse(t, "-seed", "9", "-engine", "permutation", "-builtin", "base, rolling", "-v")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if opts.Config.Iterations != 321 {
		t.Errorf("Iterations = %d, want 321 from env", opts.Config.Iterations)
	}
	if opts.Config.Engine != "permutation" || opts.Config.Seed != 9 {
		t.Errorf("flags not applied: %+v", opts.Config)
	}
	if len(opts.Builtins) != 2 || opts.Builtins[1] != "rolling" || !opts.Verbose {
		t.Errorf("Builtins = %v, Verbose = %v", opts.Builtins, opts.Verbose)
	}
}

func TestParseConfigErrors(t *testing.T) {
	if _, err := parse(t); !errors.Is(err, ErrNoInput) {
		t.Fatalf("no input: err = %v", err)
	}
	if _, err := parse(t, "-n", "0", "deck.json"); err == nil {
		t.Fatal("expected error for -n 0")
	}
	if _, err := parse(t, "-history-list", "5"); err == nil {
		t.Fatal("expected error for -history-list without -history")
	}
	if _, err := parse(t, "-watch", "-builtin", "base"); err == nil {
		t.Fatal("expected error for -watch without files")
	}
}

func runOpts(iterations int, seed uint64) Options {
	opts := Options{}
	opts.Config.Iterations = iterations
	opts.Config.Seed = seed
	opts.Config.Engine = "permutation"
	opts.Config.WatchInterval = 10 * time.Millisecond
	return opts
}

func TestRunRendersReport(t *testing.T) {
	opts := runOpts(2000, 42)
	opts.Paths = []string{writeDeck(t, "rolling.json", rollingDeck)}
	opts.Verbose = true
	var out, errOut bytes.Buffer
	if err := Run(context.Background(), opts, &out, &errOut, nil); err != nil {
		t.Fatalf("Run: %v (stderr %q)", err, errOut.String())
	}
	got := out.String()
	for _, want := range []string{
		"12,000 attacks in",
		"(seed 42)",
		"|        Gloomhaven        ||        Frosthaven        |",
		"    ^0 |     0% |",
		"   Pos |",
		"  Miss |     0% |",
		"Gloomhaven/Normal",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected stderr: %q", errOut.String())
	}
}

// TestRunSkipsBadDeck ensures one broken file does not stop the others.
func TestRunSkipsBadDeck(t *testing.T) {
	opts := runOpts(100, 1)
	bad := writeDeck(t, "bad.json", `[{"tag": "+1"}]`)
	good := writeDeck(t, "good.json", rollingDeck)
	opts.Paths = []string{bad, filepath.Join(t.TempDir(), "missing.json"), good}
	opts.Builtins = []string{"base"}

	var out, errOut bytes.Buffer
	err := Run(context.Background(), opts, &out, &errOut, nil)
	if !errors.Is(err, ErrDeckFailed) {
		t.Fatalf("err = %v, want %v", err, ErrDeckFailed)
	}
	if !strings.Contains(err.Error(), "2 of 4") {
		t.Errorf("err = %v, want 2 of 4", err)
	}
	if !strings.Contains(errOut.String(), bad) || !strings.Contains(errOut.String(), "missing.json") {
		t.Errorf("stderr does not name failed files: %q", errOut.String())
	}
	if !strings.Contains(out.String(), good) || !strings.Contains(out.String(), "builtin:base") {
		t.Errorf("good decks not reported:\n%s", out.String())
	}
}

func TestRunRecordsAndListsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	opts := runOpts(100, 5)
	opts.Config.HistoryDB = db
	opts.Builtins = []string{"rolling"}
	if err := Run(context.Background(), opts, io.Discard, io.Discard, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	list := runOpts(100, 0)
	list.Config.HistoryDB = db
	list.HistoryList = 10
	var out bytes.Buffer
	if err := Run(context.Background(), list, &out, io.Discard, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "builtin:rolling") || !strings.Contains(out.String(), "seed=5 ") {
		t.Fatalf("history listing = %q", out.String())
	}
}

func TestRunRemote(t *testing.T) {
	svc := server.NewService(100, deck.StrategyPermutation, nil, nil)
	srv, err := server.New("127.0.0.1:0", svc, nil)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	local := runOpts(500, 11)
	local.Builtins = []string{"base"}
	remote := local
	remote.Remote = srv.Addr()

	var a, b bytes.Buffer
	if err := Run(context.Background(), local, &a, io.Discard, nil); err != nil {
		t.Fatalf("local: %v", err)
	}
	if err := Run(context.Background(), remote, &b, io.Discard, nil); err != nil {
		t.Fatalf("remote: %v", err)
	}
	// the tables match; only the timing in the summary line may differ
	if tableOf(a.String()) != tableOf(b.String()) {
		t.Fatalf("local and remote tables differ:\n%s\n---\n%s", a.String(), b.String())
	}
}

func tableOf(s string) string {
	_, table, _ := strings.Cut(s, "\n")
	return table
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestRunWatchRerunsChangedDeck(t *testing.T) {
	p := writeDeck(t, "deck.json", rollingDeck)
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatal(err)
	}
	opts := runOpts(50, 3)
	opts.Paths = []string{p}
	opts.Watch = true

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, opts, &out, io.Discard, nil) }()

	waitFor := func(n int) {
		deadline := time.Now().Add(3 * time.Second)
		for strings.Count(out.String(), "attacks in") < n {
			if time.Now().After(deadline) {
				t.Fatalf("saw %d reports, want %d", strings.Count(out.String(), "attacks in"), n)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
	waitFor(1)
	// give the watcher time to prime before the change
	time.Sleep(50 * time.Millisecond)
	now := time.Now()
	if err := os.Chtimes(p, now, now); err != nil {
		t.Fatal(err)
	}
	waitFor(2)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestResultFromResponseMismatch(t *testing.T) {
	groups := []deck.Group{{Tag: "+1", Value: 1, Count: 1}}
	plus1 := groups[0].Card()
	tests := []struct {
		name string
		resp server.Response
	}{
		{"unknown card", server.Response{Cards: []deck.Card{{Tag: "+9", Value: 9}}}},
		{"short counts", server.Response{
			Cards:     []deck.Card{plus1},
			Scenarios: []server.ScenarioResult{{Game: "Gloomhaven", Kind: "Normal"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resultFromResponse(groups, tt.resp); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResultFromResponseCardsSharingALabel(t *testing.T) {
	groups := []deck.Group{
		{Tag: "x2", Value: 2, Count: 3},
		{Tag: "x2", Value: 2, Terminal: true, Count: 1},
	}
	plain, shuffling := groups[0].Card(), groups[1].Card()
	resp := server.Response{
		Cards: []deck.Card{plain, shuffling},
		Scenarios: []server.ScenarioResult{{
			Game: "Gloomhaven", Kind: "Normal", Attacks: 10, Counts: []int{7, 3},
		}},
	}
	res, err := resultFromResponse(groups, resp)
	if err != nil {
		t.Fatalf("resultFromResponse: %v", err)
	}
	tally := res.Tallies[0]
	if tally.Count(plain) != 7 || tally.Count(shuffling) != 3 {
		t.Fatalf("plain x2=%d terminal x2=%d, want 7 and 3", tally.Count(plain), tally.Count(shuffling))
	}
}

func TestHistoryOpenFailure(t *testing.T) {
	opts := runOpts(10, 1)
	opts.Config.HistoryDB = filepath.Join(t.TempDir(), "no", "such", "dir", "runs.db")
	opts.Builtins = []string{"base"}
	if err := Run(context.Background(), opts, io.Discard, io.Discard, nil); err == nil {
		t.Fatal("expected error opening history in a missing directory")
	}
}
