// Package report renders simulation results as the fixed-width text table
// printed by the CLI.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/havensim/internal/attack"
)

const (
	cellWidth  = 6
	labelWidth = 5
	pathWidth  = 40
	header     = "       |        Gloomhaven        ||        Frosthaven        |"
)

var printer = message.NewPrinter(language.English)

// Summary formats the one-line run summary: path, attacks simulated, elapsed
// time and the seed that reproduces the run.
func Summary(path string, res attack.Result) string {
	return fmt.Sprintf("%-*s %s attacks in %s sec (seed %d)",
		pathWidth, path, printer.Sprintf("%d", res.Attacks()), formatElapsed(res.Elapsed), res.Seed)
}

// formatElapsed renders d as seconds with millisecond precision.
func formatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

// Render writes the summary, one probability row per distinct card and the
// aggregate rows for res.
func Render(w io.Writer, path string, res attack.Result) error {
	var b strings.Builder
	b.WriteString(Summary(path, res))
	b.WriteByte('\n')
	b.WriteString(header)
	b.WriteByte('\n')

	row(&b, "Card", res, func(t attack.Tally) string { return t.Scenario.Kind.String() })
	for _, c := range res.Cards {
		percentRow(&b, c.String(), res, func(t attack.Tally) int { return t.Count(c) })
	}
	b.WriteByte('\n')

	percentRow(&b, "Pos", res, attack.Tally.Positive)
	percentRow(&b, "≥0", res, attack.Tally.NonNegative)
	percentRow(&b, "Neg", res, attack.Tally.Negative)
	percentRow(&b, "Miss", res, attack.Tally.Misses)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderStats writes draw statistics and the mean result value per scenario.
func RenderStats(w io.Writer, res attack.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-26s %7s %7s %5s %5s %5s %7s %9s\n",
		"scenario", "draws", "stddev", "p50", "p90", "p99", "value", "reshuffle")
	for _, t := range res.Tallies {
		fmt.Fprintf(&b, "%-26s %7.3f %7.3f %5.0f %5.0f %5.0f %7.3f %8.2f%%\n",
			t.Scenario, t.Draws.Mean, t.Draws.StdDev, t.Draws.P50, t.Draws.P90, t.Draws.P99,
			t.MeanValue(), 100*t.Fraction(t.Reshuffles))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func percentRow(b *strings.Builder, label string, res attack.Result, count func(attack.Tally) int) {
	row(b, label, res, func(t attack.Tally) string {
		return fmt.Sprintf("%*.0f%%", cellWidth-1, 100*t.Fraction(count(t)))
	})
}

// row writes one table line. Cells are cut or padded to cellWidth; kinds are
// joined with " | " and games with " || ".
func row(b *strings.Builder, label string, res attack.Result, cell func(attack.Tally) string) {
	games := make([]string, 0, len(attack.Games()))
	for _, g := range attack.Games() {
		cells := make([]string, 0, len(attack.Kinds()))
		for _, k := range attack.Kinds() {
			t, _ := res.Tally(attack.Scenario{Game: g, Kind: k})
			cells = append(cells, fit(cell(t)))
		}
		games = append(games, strings.Join(cells, " | "))
	}
	fmt.Fprintf(b, " %*s | %s |\n", labelWidth, label, strings.Join(games, " || "))
}

func fit(s string) string {
	r := []rune(s)
	if len(r) > cellWidth {
		return string(r[:cellWidth])
	}
	return fmt.Sprintf("%-*s", cellWidth, s)
}
