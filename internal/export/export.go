// Package export writes flagged value bets in the BF Botmanager CSV import layout.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"value-bet-finder/internal/analysis"
)

// Header is the fixed BF Botmanager column set.
var Header = []string{
	"Date", "Time", "Event", "Market", "Selection",
	"Back/Lay", "Odds", "Stake", "Value %", "Sport",
	"Competition", "Market Type", "In-Play",
}

const (
	market     = "Match Odds"
	marketType = "Match Odds"
	side       = "Back"
	sport      = "Football"
	inPlay     = "false"
)

// SplitLabel splits "A vs B (Home)" into "A vs B" and "Home".
// The last " (" separates the selection so event names may carry brackets.
// A label without a selection comes back whole with an empty selection.
func SplitLabel(label string) (event, selection string) {
	i := strings.LastIndex(label, " (")
	if i < 0 {
		return label, ""
	}
	return label[:i], strings.TrimSuffix(label[i+2:], ")")
}

// Record builds one CSV data row for a flagged bet at the given time.
func Record(row analysis.Row, now time.Time) []string {
	event, selection := SplitLabel(row.Label())
	return []string{
		now.Format("2006-01-02"),
		now.Format("15:04"),
		event,
		market,
		selection,
		side,
		fmt.Sprintf("%.2f", row.AdjustedPrice),
		fmt.Sprintf("%.2f", row.Stake),
		fmt.Sprintf("%.2f", row.Value),
		sport,
		"",
		marketType,
		inPlay,
	}
}

// Write streams the header and one record per row, CRLF terminated.
func Write(w io.Writer, rows []analysis.Row, now time.Time) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Record(row, now)); err != nil {
			return fmt.Errorf("writing row %q: %w", row.Label(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates (or truncates) path and writes the export into it.
func WriteFile(path string, rows []analysis.Row, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := Write(f, rows, now); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
