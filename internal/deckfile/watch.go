package deckfile

import (
	"context"
	"os"
	"time"
)

// FileWatcher polls file modification times and calls onChange for every
// path whose mtime moved forward since the previous poll.
type FileWatcher struct {
	Paths     []string
	Interval  time.Duration
	onChange  func(string)
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for paths. Interval must be positive.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run primes the mtime cache and polls until ctx is done. Callbacks run on
// the caller's goroutine, one at a time.
func (w *FileWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.scanAll(true)
	for {
		select {
		case <-ticker.C:
			w.scanAll(false)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			// missing files are picked up once they appear
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime || w.onChange == nil {
			continue
		}
		if !ok || mt.After(last) {
			w.onChange(p)
		}
	}
}
