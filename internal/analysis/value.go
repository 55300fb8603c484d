package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"value-bet-finder/internal/odds"
)

// Polarity tags for a flagged row.
const (
	TagPositive = "positive"
	TagNegative = "negative"
)

// Config holds the value detection inputs.
// All figures are percentages except BetUnit, which is a currency amount.
type Config struct {
	Threshold  float64 // Minimum |value| to flag a row (e.g., 11.57 = 11.57%)
	Commission float64 // Exchange commission (e.g., 6.52 = 6.52%)
	Discount   float64 // Discount on commission (e.g., 20 = 20%)
	BetUnit    float64 // Stake per unit of k-factor
}

// DefaultConfig returns the finder's stock settings.
func DefaultConfig() Config {
	return Config{
		Threshold:  11.57,
		Commission: 6.52,
		Discount:   20,
		BetUnit:    8,
	}
}

// ParseConfig builds a Config from raw text fields.
// Empty fields keep the value from base; non-numeric fields are an error.
func ParseConfig(base Config, threshold, commission, discount, betUnit string) (Config, error) {
	cfg := base
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"threshold", threshold, &cfg.Threshold},
		{"commission", commission, &cfg.Commission},
		{"discount", discount, &cfg.Discount},
		{"bet unit", betUnit, &cfg.BetUnit},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return base, fmt.Errorf("%s: could not convert %q to a number", f.name, f.raw)
		}
		*f.dst = v
	}

	return cfg, nil
}

// PredictionRecord is one market prediction for one fixture.
type PredictionRecord struct {
	TypeCode  string
	EventName string
	Outcomes  map[string]float64 // outcome key -> probability (0-100)
}

// Outcome is a single priced selection derived from a prediction.
type Outcome struct {
	Event       string
	Selection   string
	FairOdds    float64
	Probability float64
}

// Label returns the display label, e.g. "A vs B (Home)".
func (o Outcome) Label() string {
	return o.Event + " (" + o.Selection + ")"
}

// Row is a flagged value bet.
type Row struct {
	Event         string  `json:"event"`
	Selection     string  `json:"selection"`
	AdjustedPrice float64 `json:"adjusted_price"`
	FairOdds      float64 `json:"fair_odds"`
	Value         float64 `json:"value"` // percent
	KFactor       float64 `json:"k_factor"`
	Stake         float64 `json:"stake"`
	Tag           string  `json:"tag"`
}

// Label returns the display label, e.g. "A vs B (Home)".
func (r Row) Label() string {
	return r.Event + " (" + r.Selection + ")"
}

// Positive reports whether the adjusted price is above fair odds.
func (r Row) Positive() bool {
	return r.Tag == TagPositive
}

// Cells returns the table columns: event, adjusted price, fair odds, value, k-factor, stake.
func (r Row) Cells() []string {
	return []string{
		r.Label(),
		fmt.Sprintf("%.2f", r.AdjustedPrice),
		fmt.Sprintf("%.2f", r.FairOdds),
		fmt.Sprintf("%.2f%%", r.Value),
		fmt.Sprintf("%.2f", r.KFactor),
		fmt.Sprintf("%.2f", r.Stake),
	}
}

// DeriveOutcomes prices every tracked selection of a prediction.
// Unknown type codes yield nothing. Selections missing from the record or with a
// non-positive probability are skipped. Order follows the catalog, not the record.
func DeriveOutcomes(record PredictionRecord, catalog MarketCatalog) []Outcome {
	selections, ok := catalog[record.TypeCode]
	if !ok {
		return nil
	}

	var outcomes []Outcome
	for _, sel := range selections {
		prob, ok := record.Outcomes[sel.Key]
		if !ok || prob <= 0 {
			continue
		}
		outcomes = append(outcomes, Outcome{
			Event:       record.EventName,
			Selection:   sel.Label,
			FairOdds:    odds.FairOdds(prob),
			Probability: prob,
		})
	}
	return outcomes
}

// AdjustedPrice returns the commission-adjusted synthetic exchange price for fair odds.
func AdjustedPrice(fairOdds float64, cfg Config) float64 {
	return odds.AdjustedPrice(odds.ExchangeOdds(fairOdds), cfg.Commission, cfg.Discount)
}

// CalculateValue returns the percentage deviation of price from fair odds.
func CalculateValue(price, fairOdds float64) float64 {
	if fairOdds <= 0 {
		return 0
	}
	return ((price / fairOdds) - 1) * 100
}

// Evaluate builds a Row for an outcome whose |value| reaches the threshold.
// The comparison is inclusive: |value| == threshold is flagged.
func Evaluate(outcome Outcome, cfg Config) (Row, bool) {
	if outcome.FairOdds <= 0 {
		return Row{}, false
	}

	price := AdjustedPrice(outcome.FairOdds, cfg)
	value := CalculateValue(price, outcome.FairOdds)
	// Written as the emit condition so a NaN threshold or value flags nothing.
	if !(math.Abs(value) >= cfg.Threshold) {
		return Row{}, false
	}

	kFactor := outcome.FairOdds
	tag := TagNegative
	if value > 0 {
		tag = TagPositive
	}

	return Row{
		Event:         outcome.Event,
		Selection:     outcome.Selection,
		AdjustedPrice: price,
		FairOdds:      outcome.FairOdds,
		Value:         value,
		KFactor:       kFactor,
		Stake:         cfg.BetUnit * kFactor,
		Tag:           tag,
	}, true
}

// FindValueBets runs every record through the catalog and keeps flagged rows,
// in record order and then catalog order.
func FindValueBets(records []PredictionRecord, catalog MarketCatalog, cfg Config) []Row {
	var rows []Row
	for _, record := range records {
		for _, outcome := range DeriveOutcomes(record, catalog) {
			if row, ok := Evaluate(outcome, cfg); ok {
				rows = append(rows, row)
			}
		}
	}
	return rows
}
