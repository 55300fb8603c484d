package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"value-bet-finder/internal/alerts"
	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
)

const cleanupInterval = 10 * time.Minute

// Fetcher supplies raw predictions for a fixture window.
type Fetcher interface {
	GetProbabilities(ctx context.Context, window api.Window) ([]api.Prediction, error)
}

// Presenter receives pass progress. PassStarted is always followed by PassFinished
// for the same pass ID.
type Presenter interface {
	PassStarted(passID string, startedAt time.Time)
	PassFinished(result Result)
}

// Result is the outcome of one pass.
type Result struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Plan       api.Plan
	Window     api.Window
	Config     analysis.Config
	Fetched    int
	Rows       []analysis.Row
	Err        error
}

// Options are the engine's fixed settings.
type Options struct {
	Plan              api.Plan
	TimeIntervalHours int
	RefreshInterval   time.Duration
	Value             analysis.Config
}

// Engine runs value bet passes on a schedule and on demand.
type Engine struct {
	fetcher   Fetcher
	catalog   analysis.MarketCatalog
	notifier  *alerts.Notifier
	presenter Presenter
	opts      Options

	mu    sync.Mutex
	value analysis.Config

	refresh chan struct{}
	now     func() time.Time
}

// New creates a new Engine with all dependencies. presenter may be nil.
func New(fetcher Fetcher, catalog analysis.MarketCatalog, notifier *alerts.Notifier, presenter Presenter, opts Options) *Engine {
	return &Engine{
		fetcher:   fetcher,
		catalog:   catalog,
		notifier:  notifier,
		presenter: presenter,
		opts:      opts,
		value:     opts.Value,
		refresh:   make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Config returns the value settings the next pass will use.
func (e *Engine) Config() analysis.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// SetConfig replaces the value settings from the next pass on.
func (e *Engine) SetConfig(cfg analysis.Config) {
	e.mu.Lock()
	e.value = cfg
	e.mu.Unlock()
}

// Refresh asks Run for an immediate pass. Requests made while one is pending collapse into it.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

// Run performs a pass immediately, then one every refresh interval, until ctx is cancelled.
// A manual Refresh restarts the interval.
func (e *Engine) Run(ctx context.Context) {
	timer := time.NewTimer(e.opts.RefreshInterval)
	defer timer.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	slog.Info("Starting refresh loop", "interval", e.opts.RefreshInterval)

	e.Pass(ctx)
	resetTimer(timer, e.opts.RefreshInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Refresh loop stopped")
			return

		case <-cleanupTicker.C:
			e.notifier.CleanupOldAlerts()

		case <-e.refresh:
			e.Pass(ctx)
			resetTimer(timer, e.opts.RefreshInterval)

		case <-timer.C:
			e.Pass(ctx)
			timer.Reset(e.opts.RefreshInterval)
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// Pass fetches predictions, finds value bets and hands the result to the presenter.
// The board is cleared before the fetch; a failed pass leaves it empty.
func (e *Engine) Pass(ctx context.Context) Result {
	cfg := e.Config()
	started := e.now()
	res := Result{
		ID:        uuid.New().String(),
		StartedAt: started,
		Plan:      e.opts.Plan,
		Window:    api.NewWindow(started, e.opts.TimeIntervalHours),
		Config:    cfg,
	}

	e.notifier.UpdateStatus("Refreshing value bets list...")
	if e.presenter != nil {
		e.presenter.PassStarted(res.ID, started)
	}

	res.Fetched, res.Rows, res.Err = e.find(ctx, res.Window, cfg)
	res.FinishedAt = e.now()

	if res.Err != nil {
		res.Rows = nil
		e.notifier.LogError("Error processing data", res.Err)
	} else {
		e.notifier.UpdateStatus(fmt.Sprintf("Found %d value bets", len(res.Rows)))
		for _, row := range res.Rows {
			e.notifier.AlertValueBet(ctx, row)
		}
	}

	if e.presenter != nil {
		e.presenter.PassFinished(res)
	}
	e.notifier.LogPass(res.Fetched, len(res.Rows), res.FinishedAt.Sub(started))

	return res
}

func (e *Engine) find(ctx context.Context, window api.Window, cfg analysis.Config) (int, []analysis.Row, error) {
	e.notifier.UpdateStatus(fmt.Sprintf("Fetching predictions for %s plan...", e.opts.Plan))

	predictions, err := e.fetcher.GetProbabilities(ctx, window)
	if err != nil {
		return 0, nil, err
	}

	records, err := api.Records(predictions, e.catalog)
	if err != nil {
		return len(predictions), nil, err
	}

	return len(predictions), analysis.FindValueBets(records, e.catalog, cfg), nil
}
