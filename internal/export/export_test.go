package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"value-bet-finder/internal/analysis"
)

var exportTime = time.Date(2026, 10, 15, 9, 5, 42, 0, time.UTC)

func drawRow() analysis.Row {
	return analysis.Row{
		Event:         "A vs B",
		Selection:     "Draw",
		AdjustedPrice: 3.65,
		FairOdds:      4,
		Value:         -8.750000000000002,
		KFactor:       4,
		Stake:         32,
		Tag:           analysis.TagNegative,
	}
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		label     string
		event     string
		selection string
	}{
		{"A vs B (Home)", "A vs B", "Home"},
		{"A vs B (Over 2.5)", "A vs B", "Over 2.5"},
		{"Inter (Milan) vs Roma (BTTS Yes)", "Inter (Milan) vs Roma", "BTTS Yes"},
		{"No selection", "No selection", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			event, selection := SplitLabel(tt.label)
			if event != tt.event || selection != tt.selection {
				t.Errorf("SplitLabel(%q) = (%q, %q), want (%q, %q)",
					tt.label, event, selection, tt.event, tt.selection)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []analysis.Row{drawRow()}, exportTime); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !strings.HasSuffix(buf.String(), "\r\n") {
		t.Errorf("export should be CRLF terminated: %q", buf.String())
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	wantHeader := "Date,Time,Event,Market,Selection,Back/Lay,Odds,Stake,Value %,Sport,Competition,Market Type,In-Play"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}

	wantRow := "2026-10-15,09:05,A vs B,Match Odds,Draw,Back,3.65,32.00,-8.75,Football,,Match Odds,false"
	if lines[1] != wantRow {
		t.Errorf("row = %q, want %q", lines[1], wantRow)
	}
}

func TestWriteEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, exportTime); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !reflect.DeepEqual(records[0], Header) {
		t.Errorf("empty export should contain only the header, got %v", records)
	}
}

func TestRecordQuotesCommas(t *testing.T) {
	row := drawRow()
	row.Event = "Brighton, Hove vs Leeds"

	var buf bytes.Buffer
	if err := Write(&buf, []analysis.Row{row}, exportTime); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if records[1][2] != "Brighton, Hove vs Leeds" {
		t.Errorf("event column = %q", records[1][2])
	}
	if len(records[1]) != len(Header) {
		t.Errorf("row has %d columns, want %d", len(records[1]), len(Header))
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bets.csv")
	if err := WriteFile(path, []analysis.Row{drawRow()}, exportTime); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "A vs B,Match Odds,Draw,Back") {
		t.Errorf("unexpected file contents %q", data)
	}
}

func TestWriteFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "bets.csv")
	if err := WriteFile(path, []analysis.Row{drawRow()}, exportTime); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
