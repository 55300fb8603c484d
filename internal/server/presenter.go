package server

import (
	"context"
	"log/slog"
	"time"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/board"
	"value-bet-finder/internal/engine"
	"value-bet-finder/internal/hub"
)

const publishTimeout = 5 * time.Second

// RowPublisher forwards flagged rows to an outside consumer.
type RowPublisher interface {
	PublishRows(ctx context.Context, passID string, detectedAt time.Time, rows []analysis.Row) error
}

// StatusSource supplies the current status line.
type StatusSource interface {
	Status() string
}

// Presenter writes pass progress to the board and pushes it to connected clients.
// hub and publisher may be nil.
type Presenter struct {
	board     *board.DB
	hub       *hub.Hub
	publisher RowPublisher
	status    StatusSource
}

// NewPresenter creates a presenter over the board.
func NewPresenter(db *board.DB, h *hub.Hub, publisher RowPublisher, status StatusSource) *Presenter {
	return &Presenter{board: db, hub: h, publisher: publisher, status: status}
}

// PassStarted clears the board.
func (p *Presenter) PassStarted(passID string, startedAt time.Time) {
	if err := p.board.Begin(passID, startedAt); err != nil {
		slog.Error("clearing board", "pass", passID, "err", err)
	}
	if p.hub != nil {
		p.hub.Broadcast(hub.MessageTypeStatus, p.status.Status())
	}
}

// PassFinished stores the pass rows and pushes the new board.
func (p *Presenter) PassFinished(res engine.Result) {
	if err := p.board.Finish(res.ID, res.FinishedAt, res.Fetched, res.Rows, res.Err); err != nil {
		slog.Error("storing board", "pass", res.ID, "err", err)
		return
	}

	if p.hub != nil {
		view, err := loadBoard(p.board, p.status)
		if err != nil {
			slog.Error("loading board", "pass", res.ID, "err", err)
		} else {
			p.hub.Broadcast(hub.MessageTypeBoard, view)
		}
	}

	if p.publisher != nil && res.Err == nil && len(res.Rows) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.publisher.PublishRows(ctx, res.ID, res.FinishedAt, res.Rows); err != nil {
			slog.Warn("publishing value bets", "pass", res.ID, "err", err)
		}
	}
}
