package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"value-bet-finder/internal/analysis"
)

type fakeSender struct {
	messages []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testRow() analysis.Row {
	return analysis.Row{
		Event: "A vs B", Selection: "Draw",
		AdjustedPrice: 3.65, FairOdds: 4, Value: -8.75, KFactor: 4, Stake: 32,
		Tag: analysis.TagNegative,
	}
}

func TestUpdateStatusFormat(t *testing.T) {
	n := NewNotifier(time.Minute, nil)
	n.now = fixedClock(time.Date(2026, 10, 15, 14, 3, 9, 0, time.UTC))

	n.UpdateStatus("Found 3 value bets")

	if got := n.Status(); got != "[14:03:09] Found 3 value bets" {
		t.Errorf("Status() = %q", got)
	}
}

func TestLogErrorSetsStatus(t *testing.T) {
	n := NewNotifier(time.Minute, nil)
	n.now = fixedClock(time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC))

	n.LogError("Error exporting to CSV", errors.New("permission denied"))

	if got := n.Status(); got != "[08:00:00] Error exporting to CSV: permission denied" {
		t.Errorf("Status() = %q", got)
	}
}

func TestCheckCooldownSuppresses(t *testing.T) {
	n := NewNotifier(1*time.Second, nil)

	if n.checkCooldown("test-key") {
		t.Error("first call should not be suppressed")
	}
	if !n.checkCooldown("test-key") {
		t.Error("second call within cooldown should be suppressed")
	}
}

func TestCheckCooldownExpires(t *testing.T) {
	n := NewNotifier(time.Minute, nil)
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	n.now = fixedClock(now)

	if n.checkCooldown("test-key") {
		t.Error("first call should not be suppressed")
	}

	n.now = fixedClock(now.Add(2 * time.Minute))
	if n.checkCooldown("test-key") {
		t.Error("call after cooldown should not be suppressed")
	}
}

func TestCheckCooldownDifferentKeys(t *testing.T) {
	n := NewNotifier(1*time.Second, nil)

	if n.checkCooldown("key-a") {
		t.Error("first call for key-a should not be suppressed")
	}
	if n.checkCooldown("key-b") {
		t.Error("first call for key-b should not be suppressed")
	}
	if !n.checkCooldown("key-a") {
		t.Error("second call for key-a should be suppressed")
	}
}

func TestAlertValueBetSendsOncePerCooldown(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(time.Hour, sender)

	if !n.AlertValueBet(context.Background(), testRow()) {
		t.Error("first alert should go out")
	}
	if n.AlertValueBet(context.Background(), testRow()) {
		t.Error("repeat alert within cooldown should be suppressed")
	}

	if len(sender.messages) != 1 {
		t.Fatalf("sender got %d messages, want 1", len(sender.messages))
	}
	want := "- VALUE: A vs B (Draw) | adjust=3.65 true=4.00 value=-8.75% k=4.00 stake=32.00"
	if sender.messages[0] != want {
		t.Errorf("message = %q, want %q", sender.messages[0], want)
	}
}

func TestAlertValueBetSenderFailureIsNotFatal(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	n := NewNotifier(time.Hour, sender)

	if !n.AlertValueBet(context.Background(), testRow()) {
		t.Error("alert should still count as sent when delivery fails")
	}
}

func TestFormatValueBetPositive(t *testing.T) {
	row := testRow()
	row.Tag = analysis.TagPositive
	if got := FormatValueBet(row); !strings.HasPrefix(got, "+ VALUE:") {
		t.Errorf("positive row should be marked +, got %q", got)
	}
}

func TestCleanupOldAlerts(t *testing.T) {
	n := NewNotifier(time.Minute, nil)
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	n.now = fixedClock(now)
	n.checkCooldown("old")
	n.now = fixedClock(now.Add(90 * time.Minute))
	n.checkCooldown("fresh")

	n.CleanupOldAlerts()

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.lastAlerts["old"]; ok {
		t.Error("old alert should be cleaned up")
	}
	if _, ok := n.lastAlerts["fresh"]; !ok {
		t.Error("fresh alert should be kept")
	}
}
