package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"value-bet-finder/internal/alerts"
	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/api"
	"value-bet-finder/internal/board"
	"value-bet-finder/internal/config"
	"value-bet-finder/internal/engine"
	"value-bet-finder/internal/export"
	"value-bet-finder/internal/hub"
	"value-bet-finder/internal/odds"
	"value-bet-finder/internal/publish"
	"value-bet-finder/internal/server"
)

func main() {
	once := flag.Bool("once", false, "Run a single pass, print the value bets and exit")
	csvPath := flag.String("csv", "", "With -once, also export the value bets to this CSV file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Warn("exchange prices are synthetic, not quoted by an exchange",
		"factor", odds.SyntheticExchangeFactor)

	var sender alerts.Sender
	if cfg.Telegram.BotToken != "" {
		tg, err := alerts.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("telegram alerts disabled", "error", err)
		} else {
			sender = tg
		}
	}
	notifier := alerts.NewNotifier(cfg.Schedule.AlertCooldown.Duration, sender)

	opts := []api.ClientOption{}
	if cfg.Sportmonks.BaseURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.Sportmonks.BaseURL))
	}
	client := api.NewSportmonksClient(cfg.Sportmonks.APIToken,
		cfg.Sportmonks.RequestTimeout.Duration, cfg.Sportmonks.MaxRetries, opts...)

	engineOpts := engine.Options{
		Plan:              cfg.Sportmonks.Plan,
		TimeIntervalHours: cfg.Sportmonks.TimeIntervalHours,
		RefreshInterval:   cfg.Schedule.RefreshInterval.Duration,
		Value:             cfg.Value.Analysis(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier.LogStartup(config.FormatStartup(cfg))

	if *once {
		os.Exit(runOnce(ctx, client, notifier, engineOpts, *csvPath))
	}

	if err := serve(ctx, cfg, client, notifier, engineOpts); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("value bet finder stopped")
}

func runOnce(ctx context.Context, client engine.Fetcher, notifier *alerts.Notifier, opts engine.Options, csvPath string) int {
	e := engine.New(client, analysis.DefaultCatalog(), notifier, nil, opts)
	notifier.UpdateStatus("Application initialized successfully.")

	res := e.Pass(ctx)
	if res.Err != nil {
		return 1
	}

	printTable(os.Stdout, res.Rows)

	if csvPath != "" {
		if err := export.WriteFile(csvPath, res.Rows, time.Now()); err != nil {
			notifier.LogError("Error exporting to CSV", err)
			return 1
		}
		notifier.UpdateStatus(fmt.Sprintf("Successfully exported to %s", csvPath))
	}
	return 0
}

func serve(ctx context.Context, cfg config.Config, client engine.Fetcher, notifier *alerts.Notifier, opts engine.Options) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	db, err := board.NewDB(cfg.Server.BoardDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var publisher server.RowPublisher
	if cfg.Redis.URL != "" {
		rdb, err := publish.Connect(ctx, cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			slog.Warn("redis publishing disabled", "error", err)
		} else {
			defer rdb.Close()
			publisher = publish.NewStreamPublisher(rdb, cfg.Redis.Stream)
			slog.Info("publishing value bets", "stream", cfg.Redis.Stream)
		}
	}

	h := hub.NewHub(cfg.Server.AllowedOrigins)
	go h.Run(ctx)

	presenter := server.NewPresenter(db, h, publisher, notifier)
	e := engine.New(client, analysis.DefaultCatalog(), notifier, presenter, opts)

	handler := server.NewHandler(db, e, notifier, h)
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler.Router(ctx, cfg.Server.AllowedOrigins),
		ReadTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	notifier.UpdateStatus("Application initialized successfully.")

	engineDone := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(engineDone)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping")
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("shutdown error", "error", shutdownErr)
	}

	<-engineDone
	return err
}

// printTable writes rows in the board's column layout.
func printTable(w io.Writer, rows []analysis.Row) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"EVENT", "BETFAIR ADJUST", "TRUE ODDS", "VALUE", "K FACTOR", "MONEY TO BET"}, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row.Cells(), "\t"))
	}
	tw.Flush()
}
