package analysis

import (
	"math"
	"reflect"
	"testing"
)

func sampleRecord() PredictionRecord {
	return PredictionRecord{
		TypeCode:  MarketFulltimeResult,
		EventName: "A vs B",
		Outcomes:  map[string]float64{"home": 40, "away": 35, "draw": 25},
	}
}

func sampleConfig() Config {
	return Config{Threshold: 11.57, Commission: 6.52, Discount: 20, BetUnit: 8}
}

func TestDeriveOutcomes(t *testing.T) {
	outcomes := DeriveOutcomes(sampleRecord(), DefaultCatalog())

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	expected := []struct {
		label string
		fair  float64
		prob  float64
	}{
		{"A vs B (Home)", 2.5, 40},
		{"A vs B (Away)", 2.857142857, 35},
		{"A vs B (Draw)", 4.0, 25},
	}

	for i, want := range expected {
		got := outcomes[i]
		if got.Label() != want.label {
			t.Errorf("outcome %d label = %q, want %q", i, got.Label(), want.label)
		}
		if math.Abs(got.FairOdds-want.fair) > 1e-9 {
			t.Errorf("outcome %d fair odds = %v, want %v", i, got.FairOdds, want.fair)
		}
		if got.Probability != want.prob {
			t.Errorf("outcome %d probability = %v, want %v", i, got.Probability, want.prob)
		}
	}
}

func TestDeriveOutcomesUnknownMarket(t *testing.T) {
	record := PredictionRecord{
		TypeCode:  "correct-score-probability",
		EventName: "A vs B",
		Outcomes:  map[string]float64{"home": 40},
	}

	if outcomes := DeriveOutcomes(record, DefaultCatalog()); len(outcomes) != 0 {
		t.Errorf("unknown market should yield no outcomes, got %d", len(outcomes))
	}
}

func TestDeriveOutcomesSkipsZeroAndMissing(t *testing.T) {
	tests := []struct {
		name     string
		record   PredictionRecord
		expected []string
	}{
		{
			name: "Zero probability dropped",
			record: PredictionRecord{
				TypeCode:  MarketFulltimeResult,
				EventName: "C vs D",
				Outcomes:  map[string]float64{"home": 0, "away": 50, "draw": 50},
			},
			expected: []string{"C vs D (Away)", "C vs D (Draw)"},
		},
		{
			name: "Negative probability dropped",
			record: PredictionRecord{
				TypeCode:  MarketBTTS,
				EventName: "C vs D",
				Outcomes:  map[string]float64{"yes": -1, "no": 60},
			},
			expected: []string{"C vs D (BTTS No)"},
		},
		{
			name: "Missing key skipped",
			record: PredictionRecord{
				TypeCode:  MarketOverUnder25,
				EventName: "E vs F",
				Outcomes:  map[string]float64{"yes": 55},
			},
			expected: []string{"E vs F (Over 2.5)"},
		},
		{
			name: "Keys outside the catalog ignored",
			record: PredictionRecord{
				TypeCode:  MarketOverUnder15,
				EventName: "E vs F",
				Outcomes:  map[string]float64{"no": 30, "yes": 70, "maybe": 10},
			},
			expected: []string{"E vs F (Over 1.5)", "E vs F (Under 1.5)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var labels []string
			for _, o := range DeriveOutcomes(tt.record, DefaultCatalog()) {
				if o.Probability <= 0 {
					t.Errorf("outcome %q has non-positive probability %v", o.Label(), o.Probability)
				}
				labels = append(labels, o.Label())
			}
			if !reflect.DeepEqual(labels, tt.expected) {
				t.Errorf("labels = %v, want %v", labels, tt.expected)
			}
		})
	}
}

func TestAdjustedPriceDocumentedExample(t *testing.T) {
	cfg := Config{Commission: 6.52, Discount: 20}
	if got := AdjustedPrice(2.0, cfg); got != 1.85 {
		t.Errorf("AdjustedPrice(2.0) = %v, want 1.85", got)
	}
}

func TestFindValueBetsRoundTrip(t *testing.T) {
	records := []PredictionRecord{sampleRecord()}

	// Every selection sits around -8% to -9%, under the stock threshold.
	if rows := FindValueBets(records, DefaultCatalog(), sampleConfig()); len(rows) != 0 {
		t.Fatalf("expected no rows at threshold 11.57, got %d", len(rows))
	}

	cfg := sampleConfig()
	cfg.Threshold = 5
	rows := FindValueBets(records, DefaultCatalog(), cfg)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows at threshold 5, got %d", len(rows))
	}

	expected := []struct {
		label string
		price float64
		fair  float64
		value float64
		stake float64
	}{
		{"A vs B (Home)", 2.30, 2.5, -8.0, 20},
		{"A vs B (Away)", 2.62, 100.0 / 35, -8.3, 8 * 100.0 / 35},
		{"A vs B (Draw)", 3.65, 4.0, -8.75, 32},
	}

	for i, want := range expected {
		row := rows[i]
		if row.Label() != want.label {
			t.Errorf("row %d label = %q, want %q", i, row.Label(), want.label)
		}
		if row.AdjustedPrice != want.price {
			t.Errorf("row %d adjusted price = %v, want %v", i, row.AdjustedPrice, want.price)
		}
		if math.Abs(row.FairOdds-want.fair) > 1e-12 {
			t.Errorf("row %d fair odds = %v, want %v", i, row.FairOdds, want.fair)
		}
		if math.Abs(row.Value-want.value) > 1e-9 {
			t.Errorf("row %d value = %v, want %v", i, row.Value, want.value)
		}
		if row.KFactor != row.FairOdds {
			t.Errorf("row %d k-factor = %v, want fair odds %v", i, row.KFactor, row.FairOdds)
		}
		if math.Abs(row.Stake-want.stake) > 1e-9 {
			t.Errorf("row %d stake = %v, want %v", i, row.Stake, want.stake)
		}
		if row.Tag != TagNegative {
			t.Errorf("row %d tag = %q, want %q", i, row.Tag, TagNegative)
		}
	}

	// Only the draw (-8.75%) clears 8.5%.
	cfg.Threshold = 8.5
	rows = FindValueBets(records, DefaultCatalog(), cfg)
	if len(rows) != 1 || rows[0].Selection != "Draw" {
		t.Errorf("expected only the draw at threshold 8.5, got %+v", rows)
	}
}

func TestEvaluateThresholdInclusive(t *testing.T) {
	cfg := sampleConfig()
	outcome := Outcome{Event: "A vs B", Selection: "Home", FairOdds: 2.5, Probability: 40}
	value := CalculateValue(AdjustedPrice(outcome.FairOdds, cfg), outcome.FairOdds)

	cfg.Threshold = math.Abs(value)
	if _, ok := Evaluate(outcome, cfg); !ok {
		t.Errorf("|value| == threshold (%v) should be flagged", cfg.Threshold)
	}

	cfg.Threshold = math.Abs(value) + 1e-9
	if _, ok := Evaluate(outcome, cfg); ok {
		t.Errorf("|value| < threshold (%v) should not be flagged", cfg.Threshold)
	}
}

func TestEvaluateNaNFlagsNothing(t *testing.T) {
	tests := []struct {
		name       string
		threshold  string
		commission string
		discount   string
	}{
		{"NaN threshold", "NaN", "", ""},
		{"NaN value", "0", "0", "Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(DefaultConfig(), tt.threshold, tt.commission, tt.discount, "")
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}

			rows := FindValueBets([]PredictionRecord{sampleRecord()}, DefaultCatalog(), cfg)
			if len(rows) != 0 {
				t.Errorf("expected no rows, got %d: %+v", len(rows), rows)
			}
		})
	}
}

func TestEvaluatePositiveTag(t *testing.T) {
	// A negative commission acts as a rebate and lifts the price over fair.
	cfg := Config{Threshold: 10, Commission: -100, Discount: 0, BetUnit: 2}
	outcome := Outcome{Event: "G vs H", Selection: "Draw", FairOdds: 4.0, Probability: 25}

	row, ok := Evaluate(outcome, cfg)
	if !ok {
		t.Fatal("expected a flagged row")
	}
	if row.AdjustedPrice != 6.6 {
		t.Errorf("adjusted price = %v, want 6.6", row.AdjustedPrice)
	}
	if math.Abs(row.Value-65) > 1e-9 {
		t.Errorf("value = %v, want 65", row.Value)
	}
	if row.Tag != TagPositive || !row.Positive() {
		t.Errorf("tag = %q, want %q", row.Tag, TagPositive)
	}
	if row.Stake != 8 {
		t.Errorf("stake = %v, want 8", row.Stake)
	}
}

func TestEvaluateZeroFairOdds(t *testing.T) {
	if _, ok := Evaluate(Outcome{FairOdds: 0}, Config{}); ok {
		t.Error("zero fair odds must never produce a row")
	}
}

func TestRowCells(t *testing.T) {
	row := Row{
		Event:         "A vs B",
		Selection:     "Draw",
		AdjustedPrice: 3.65,
		FairOdds:      4,
		Value:         -8.750000000000002,
		KFactor:       4,
		Stake:         32,
		Tag:           TagNegative,
	}

	expected := []string{"A vs B (Draw)", "3.65", "4.00", "-8.75%", "4.00", "32.00"}
	if got := row.Cells(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Cells() = %v, want %v", got, expected)
	}
}

func TestParseConfig(t *testing.T) {
	base := DefaultConfig()

	cfg, err := ParseConfig(base, "5", " 2.5 ", "", "10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{Threshold: 5, Commission: 2.5, Discount: base.Discount, BetUnit: 10}
	if cfg != want {
		t.Errorf("ParseConfig = %+v, want %+v", cfg, want)
	}

	if _, err := ParseConfig(base, "abc", "", "", ""); err == nil {
		t.Error("expected error for non-numeric threshold")
	}
	if _, err := ParseConfig(base, "", "", "", "eight"); err == nil {
		t.Error("expected error for non-numeric bet unit")
	}
}

func TestCatalogTracks(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) != 5 {
		t.Errorf("default catalog has %d markets, want 5", len(catalog))
	}
	if !catalog.Tracks(MarketBTTS) {
		t.Error("catalog should track BTTS")
	}
	if catalog.Tracks("corners-probability") {
		t.Error("catalog should not track corners")
	}
}
