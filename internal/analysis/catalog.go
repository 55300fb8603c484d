package analysis

// Market type codes tracked by the finder.
const (
	MarketFulltimeResult = "fulltime-result-probability"
	MarketOverUnder15    = "over-under-1_5-probability"
	MarketOverUnder25    = "over-under-2_5-probability"
	MarketOverUnder35    = "over-under-3_5-probability"
	MarketBTTS           = "both-teams-to-score-probability"
)

// Selection maps a prediction outcome key to the label shown to the user.
type Selection struct {
	Key   string
	Label string
}

// MarketCatalog maps a prediction type code to its selections.
// Selection order is the iteration order for DeriveOutcomes.
type MarketCatalog map[string][]Selection

// DefaultCatalog returns the five tracked football markets.
func DefaultCatalog() MarketCatalog {
	return MarketCatalog{
		MarketFulltimeResult: {
			{Key: "home", Label: "Home"},
			{Key: "away", Label: "Away"},
			{Key: "draw", Label: "Draw"},
		},
		MarketOverUnder15: {
			{Key: "yes", Label: "Over 1.5"},
			{Key: "no", Label: "Under 1.5"},
		},
		MarketOverUnder25: {
			{Key: "yes", Label: "Over 2.5"},
			{Key: "no", Label: "Under 2.5"},
		},
		MarketOverUnder35: {
			{Key: "yes", Label: "Over 3.5"},
			{Key: "no", Label: "Under 3.5"},
		},
		MarketBTTS: {
			{Key: "yes", Label: "BTTS Yes"},
			{Key: "no", Label: "BTTS No"},
		},
	}
}

// Tracks reports whether the catalog has an entry for typeCode.
func (c MarketCatalog) Tracks(typeCode string) bool {
	_, ok := c[typeCode]
	return ok
}
