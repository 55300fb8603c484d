package server

import (
	"time"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/board"
)

// BoardView is the JSON shape of the current board.
type BoardView struct {
	Status     string         `json:"status"`
	PassID     string         `json:"pass_id,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Running    bool           `json:"running"`
	Fetched    int            `json:"fetched"`
	Error      string         `json:"error,omitempty"`
	Count      int            `json:"count"`
	Rows       []analysis.Row `json:"rows"`
	Settings   *Settings      `json:"settings,omitempty"`
}

// Settings is the JSON shape of the value inputs.
type Settings struct {
	Threshold  float64 `json:"threshold"`
	Commission float64 `json:"commission"`
	Discount   float64 `json:"discount"`
	BetUnit    float64 `json:"bet_unit"`
}

func settingsFrom(cfg analysis.Config) *Settings {
	return &Settings{
		Threshold:  cfg.Threshold,
		Commission: cfg.Commission,
		Discount:   cfg.Discount,
		BetUnit:    cfg.BetUnit,
	}
}

func loadBoard(db *board.DB, status StatusSource) (BoardView, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return BoardView{}, err
	}

	view := BoardView{
		Status:  status.Status(),
		PassID:  snap.PassID,
		Running: snap.Running(),
		Fetched: snap.Fetched,
		Error:   snap.Error,
		Count:   len(snap.Rows),
		Rows:    snap.Rows,
	}
	if view.Rows == nil {
		view.Rows = []analysis.Row{}
	}
	if !snap.StartedAt.IsZero() {
		view.StartedAt = &snap.StartedAt
	}
	if !snap.FinishedAt.IsZero() {
		view.FinishedAt = &snap.FinishedAt
	}
	return view, nil
}
