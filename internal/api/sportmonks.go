package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"value-bet-finder/internal/analysis"
)

const (
	DefaultBaseURL    = "https://api.sportmonks.com/v3/football"
	requestsPerMinute = 50
	maxPages          = 100

	// TimeLayout is the start_time/end_time query format.
	TimeLayout = "2006-01-02 15:04:05"
)

// Plan is a Sportmonks subscription plan.
type Plan string

const (
	PlanEuropean  Plan = "EUROPEAN"
	PlanWorldwide Plan = "WORLDWIDE"
	PlanCustom    Plan = "CUSTOM"
)

// Plans lists the selectable subscription plans.
var Plans = []Plan{PlanEuropean, PlanWorldwide, PlanCustom}

// ValidPlan reports whether p is a known plan.
func ValidPlan(p Plan) bool {
	for _, known := range Plans {
		if p == known {
			return true
		}
	}
	return false
}

// Window is a fixture kick-off window.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window from now to now+hours.
func NewWindow(now time.Time, hours int) Window {
	return Window{Start: now, End: now.Add(time.Duration(hours) * time.Hour)}
}

// SportmonksClient handles API communication with Sportmonks
type SportmonksClient struct {
	apiToken string
	baseURL  string
	client   *RateLimitedClient
}

// ClientOption configures a SportmonksClient.
type ClientOption func(*SportmonksClient)

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *SportmonksClient) {
		c.baseURL = baseURL
	}
}

// NewSportmonksClient creates a new API client
func NewSportmonksClient(apiToken string, timeout time.Duration, maxRetries int, opts ...ClientOption) *SportmonksClient {
	c := &SportmonksClient{
		apiToken: apiToken,
		baseURL:  DefaultBaseURL,
		client:   NewRateLimitedClient(requestsPerMinute, timeout, maxRetries),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProbabilitiesResponse represents the API response for prediction probabilities
type ProbabilitiesResponse struct {
	Data       []Prediction `json:"data"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}

// Pagination contains paging info
type Pagination struct {
	Count       int  `json:"count"`
	PerPage     int  `json:"per_page"`
	CurrentPage int  `json:"current_page"`
	HasMore     bool `json:"has_more"`
}

// Prediction is one market prediction for a fixture
type Prediction struct {
	ID          int64                      `json:"id"`
	FixtureID   int64                      `json:"fixture_id"`
	TypeID      int64                      `json:"type_id"`
	Predictions map[string]json.RawMessage `json:"predictions"`
	Type        *PredictionType            `json:"type,omitempty"`
	Fixture     *Fixture                   `json:"fixture,omitempty"`
}

// PredictionType describes the market a prediction is for
type PredictionType struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	DeveloperName string `json:"developer_name"`
}

// Fixture contains basic match info
type Fixture struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	StartingAt string `json:"starting_at"`
}

// Probability returns the probability for an outcome key.
// The API sends probabilities either as numbers or as numeric strings.
func (p Prediction) Probability(key string) (float64, bool, error) {
	raw, ok := p.Predictions[key]
	if !ok {
		return 0, false, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, true, fmt.Errorf("prediction %d: %s: missing value", p.ID, key)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, true, fmt.Errorf("prediction %d: %s: %w", p.ID, key, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, true, fmt.Errorf("prediction %d: %s: could not convert %q to a number", p.ID, key, s)
		}
		return f, true, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, true, fmt.Errorf("prediction %d: %s: not a number: %s", p.ID, key, string(raw))
	}
	return f, true, nil
}

// Record converts a prediction into the finder's input shape.
// Predictions for untracked markets return ok=false without error; a tracked
// prediction missing its type or fixture, or with a non-numeric probability, is an error.
func (p Prediction) Record(catalog analysis.MarketCatalog) (analysis.PredictionRecord, bool, error) {
	if p.Type == nil {
		return analysis.PredictionRecord{}, false, fmt.Errorf("prediction %d: missing type", p.ID)
	}

	if !catalog.Tracks(p.Type.Code) {
		return analysis.PredictionRecord{}, false, nil
	}
	selections := catalog[p.Type.Code]

	if p.Fixture == nil {
		return analysis.PredictionRecord{}, false, fmt.Errorf("prediction %d: missing fixture", p.ID)
	}
	if p.Fixture.Name == "" {
		return analysis.PredictionRecord{}, false, fmt.Errorf("prediction %d: fixture %d has no name", p.ID, p.Fixture.ID)
	}
	if p.Predictions == nil {
		return analysis.PredictionRecord{}, false, fmt.Errorf("prediction %d: missing predictions", p.ID)
	}

	outcomes := make(map[string]float64, len(selections))
	for _, sel := range selections {
		prob, present, err := p.Probability(sel.Key)
		if err != nil {
			return analysis.PredictionRecord{}, false, err
		}
		if present {
			outcomes[sel.Key] = prob
		}
	}

	return analysis.PredictionRecord{
		TypeCode:  p.Type.Code,
		EventName: p.Fixture.Name,
		Outcomes:  outcomes,
	}, true, nil
}

// Records converts every tracked prediction, stopping at the first malformed one.
func Records(predictions []Prediction, catalog analysis.MarketCatalog) ([]analysis.PredictionRecord, error) {
	records := make([]analysis.PredictionRecord, 0, len(predictions))
	for _, p := range predictions {
		record, ok, err := p.Record(catalog)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// GetProbabilities fetches prediction probabilities for fixtures in the window, handling pagination
func (c *SportmonksClient) GetProbabilities(ctx context.Context, window Window) ([]Prediction, error) {
	var all []Prediction

	for page := 1; page <= maxPages; page++ {
		body, err := c.client.Get(ctx, c.probabilitiesURL(window, page), nil)
		if err != nil {
			return nil, fmt.Errorf("fetching predictions: %w", err)
		}

		var resp ProbabilitiesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parsing predictions response: %w", err)
		}

		all = append(all, resp.Data...)

		if resp.Pagination == nil || !resp.Pagination.HasMore {
			break
		}
	}

	return all, nil
}

func (c *SportmonksClient) probabilitiesURL(window Window, page int) string {
	params := url.Values{}
	params.Set("api_token", c.apiToken)
	params.Set("include", "type;fixture")
	if !window.Start.IsZero() {
		params.Set("start_time", window.Start.Format(TimeLayout))
	}
	if !window.End.IsZero() {
		params.Set("end_time", window.End.Format(TimeLayout))
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return c.baseURL + "/predictions/probabilities?" + params.Encode()
}
