package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"value-bet-finder/internal/analysis"
)

// Sender delivers an alert message to an external channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Notifier keeps the status line and sends value bet alerts
type Notifier struct {
	mu         sync.Mutex
	status     string
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	sender     Sender
	now        func() time.Time
}

// NewNotifier creates a new notifier. sender may be nil.
func NewNotifier(cooldown time.Duration, sender Sender) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		sender:     sender,
		now:        time.Now,
	}
}

// UpdateStatus sets the status line to "[HH:MM:SS] message" and logs the message.
func (n *Notifier) UpdateStatus(message string) {
	n.mu.Lock()
	n.status = fmt.Sprintf("[%s] %s", n.now().Format("15:04:05"), message)
	n.mu.Unlock()

	slog.Info(message)
}

// Status returns the current status line.
func (n *Notifier) Status() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// LogError puts an error on the status line and in the log
func (n *Notifier) LogError(prefix string, err error) {
	message := fmt.Sprintf("%s: %v", prefix, err)

	n.mu.Lock()
	n.status = fmt.Sprintf("[%s] %s", n.now().Format("15:04:05"), message)
	n.mu.Unlock()

	slog.Error(prefix, "err", err)
}

// checkCooldown reports whether key was alerted within the cooldown, recording it if not.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if lastTime, ok := n.lastAlerts[key]; ok && now.Sub(lastTime) < n.cooldown {
		return true
	}
	n.lastAlerts[key] = now
	return false
}

// AlertValueBet logs a flagged row and forwards it to the sender, once per cooldown.
// It reports whether the alert went out.
func (n *Notifier) AlertValueBet(ctx context.Context, row analysis.Row) bool {
	if n.checkCooldown(row.Label()) {
		return false
	}

	slog.Info("value bet",
		"event", row.Label(),
		"adjusted", row.AdjustedPrice,
		"fair", row.FairOdds,
		"value", row.Value,
		"stake", row.Stake,
		"tag", row.Tag,
	)

	if n.sender != nil {
		if err := n.sender.Send(ctx, FormatValueBet(row)); err != nil {
			slog.Warn("alert delivery failed", "event", row.Label(), "err", err)
		}
	}
	return true
}

// FormatValueBet renders a row as a single alert line.
func FormatValueBet(row analysis.Row) string {
	cells := row.Cells()
	return fmt.Sprintf("%s VALUE: %s | adjust=%s true=%s value=%s k=%s stake=%s",
		polarityMark(row), cells[0], cells[1], cells[2], cells[3], cells[4], cells[5])
}

func polarityMark(row analysis.Row) string {
	if row.Positive() {
		return "+"
	}
	return "-"
}

// LogPass logs a pass completion
func (n *Notifier) LogPass(fetched, flagged int, took time.Duration) {
	slog.Info("pass complete", "predictions", fetched, "value_bets", flagged, "took", took)
}

// LogStartup logs startup
func (n *Notifier) LogStartup(config string) {
	slog.Info("value bet finder started", "config", config)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := n.now().Add(-1 * time.Hour)
	if n.cooldown > time.Hour {
		cutoff = n.now().Add(-n.cooldown)
	}
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
