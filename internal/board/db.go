package board

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"value-bet-finder/internal/analysis"
)

// Snapshot is the board as of the latest pass.
type Snapshot struct {
	PassID     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the pass is running
	Fetched    int
	Error      string
	Rows       []analysis.Row
}

// Running reports whether the pass has not finished yet.
func (s Snapshot) Running() bool {
	return s.PassID != "" && s.FinishedAt.IsZero()
}

// DB holds the rows of the current pass only. Every pass starts by clearing it.
type DB struct {
	db *sql.DB
}

// NewDB opens the board database. ":memory:" keeps the board off disk.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS board_rows (
		position INTEGER PRIMARY KEY,
		pass_id TEXT NOT NULL,
		event TEXT NOT NULL,
		selection TEXT NOT NULL,
		adjusted_price REAL NOT NULL,
		fair_odds REAL NOT NULL,
		value REAL NOT NULL,
		k_factor REAL NOT NULL,
		stake REAL NOT NULL,
		tag TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS board_pass (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pass_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		fetched INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Begin clears the board and records a running pass.
func (d *DB) Begin(passID string, startedAt time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM board_rows"); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO board_pass (id, pass_id, started_at, finished_at, fetched, error)
		VALUES (1, ?, ?, NULL, 0, '')
		ON CONFLICT(id) DO UPDATE SET
			pass_id = excluded.pass_id,
			started_at = excluded.started_at,
			finished_at = NULL,
			fetched = 0,
			error = ''
	`, passID, startedAt.UTC()); err != nil {
		return fmt.Errorf("recording pass: %w", err)
	}

	return tx.Commit()
}

// Finish stores the rows of a completed pass. A failed pass stores its error and no rows.
// Rows land all at once or not at all.
func (d *DB) Finish(passID string, finishedAt time.Time, fetched int, rows []analysis.Row, passErr error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM board_rows"); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}

	errText := ""
	if passErr != nil {
		errText = passErr.Error()
		rows = nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO board_rows (position, pass_id, event, selection, adjusted_price, fair_odds, value, k_factor, stake, tag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.Exec(i, passID, r.Event, r.Selection, r.AdjustedPrice, r.FairOdds,
			r.Value, r.KFactor, r.Stake, r.Tag); err != nil {
			return fmt.Errorf("inserting row %q: %w", r.Label(), err)
		}
	}

	res, err := tx.Exec(`
		UPDATE board_pass SET finished_at = ?, fetched = ?, error = ?
		WHERE id = 1 AND pass_id = ?
	`, finishedAt.UTC(), fetched, errText, passID)
	if err != nil {
		return fmt.Errorf("recording pass result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pass %s was not started on this board", passID)
	}

	return tx.Commit()
}

// Rows returns the current rows in pass order.
func (d *DB) Rows() ([]analysis.Row, error) {
	rows, err := d.db.Query(`
		SELECT event, selection, adjusted_price, fair_odds, value, k_factor, stake, tag
		FROM board_rows
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var out []analysis.Row
	for rows.Next() {
		var r analysis.Row
		if err := rows.Scan(&r.Event, &r.Selection, &r.AdjustedPrice, &r.FairOdds,
			&r.Value, &r.KFactor, &r.Stake, &r.Tag); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// Snapshot returns the latest pass and its rows. A board that never ran returns a zero Snapshot.
func (d *DB) Snapshot() (Snapshot, error) {
	var s Snapshot
	var finished sql.NullTime

	err := d.db.QueryRow(`
		SELECT pass_id, started_at, finished_at, fetched, error
		FROM board_pass WHERE id = 1
	`).Scan(&s.PassID, &s.StartedAt, &finished, &s.Fetched, &s.Error)
	if err == sql.ErrNoRows {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scanning pass: %w", err)
	}
	if finished.Valid {
		s.FinishedAt = finished.Time
	}

	s.Rows, err = d.Rows()
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Count returns the number of rows on the board.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM board_rows").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}
