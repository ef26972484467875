// Package history records finished simulation runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xtding233/havensim/internal/attack"
	"github.com/xtding233/havensim/internal/deck"
)

var ErrNotFound = errors.New("run not found")

// Run is one stored simulation run.
type Run struct {
	ID         string
	Path       string
	Seed       uint64
	Engine     string
	Iterations int
	Attacks    int
	Elapsed    time.Duration
	CreatedAt  time.Time
}

// CardCount is how often a card was the result of one scenario.
// Index is the card's position in the run's distinct card list; cards that
// print the same still get their own row.
type CardCount struct {
	Scenario string // "Game/Kind"
	Index    int
	Card     deck.Card
	Count    int
}

// Store persists runs in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save records res under a fresh run id and returns the id.
func (s *Store) Save(ctx context.Context, path string, res attack.Result) (string, error) {
	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, path, seed, engine, iterations, attacks, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, path, strconv.FormatUint(res.Seed, 10), string(res.Strategy),
		res.Iterations, res.Attacks(), res.Elapsed.Milliseconds(), time.Now().UTC().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, t := range res.Tallies {
		game, kind := t.Scenario.Game.String(), t.Scenario.Kind.String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenarios (run_id, game, kind, attacks, reshuffles, mean_draws, mean_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, game, kind, t.Attacks, t.Reshuffles, t.Draws.Mean, t.MeanValue(),
		); err != nil {
			return "", fmt.Errorf("insert scenario %s: %w", t.Scenario, err)
		}
		for i, c := range res.Cards {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO results (run_id, game, kind, card_index, tag, value, rolling, terminal, count)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, game, kind, i, c.Tag, c.Value, c.Rolling, c.Terminal, t.Count(c),
			); err != nil {
				return "", fmt.Errorf("insert result %s %s: %w", t.Scenario, c, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, seed, engine, iterations, attacks, elapsed_ms, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, seed, engine, iterations, attacks, elapsed_ms, created_at
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// Counts returns the stored result counts of a run, in scenario then card order.
func (s *Store) Counts(ctx context.Context, id string) ([]CardCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game, kind, card_index, tag, value, rolling, terminal, count
		 FROM results WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []CardCount
	for rows.Next() {
		var game, kind string
		var c CardCount
		if err := rows.Scan(&game, &kind, &c.Index, &c.Card.Tag, &c.Card.Value,
			&c.Card.Rolling, &c.Card.Terminal, &c.Count); err != nil {
			return nil, err
		}
		c.Scenario = game + "/" + kind
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r         Run
		seed      string
		elapsedMS int64
		createdAt int64
	)
	if err := row.Scan(&r.ID, &r.Path, &seed, &r.Engine, &r.Iterations, &r.Attacks, &elapsedMS, &createdAt); err != nil {
		return Run{}, err
	}
	var err error
	if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return Run{}, fmt.Errorf("run %s: bad seed %q: %w", r.ID, seed, err)
	}
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	return r, nil
}
