// Package resultstore keeps an audit log of completed scrape runs. It
// is written after a scrape finishes and never consulted during one,
// so it is a history, not a cache.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
)

const Schema = `
CREATE TABLE IF NOT EXISTS scrape_run (
	id TEXT NOT NULL PRIMARY KEY,
	source TEXT NOT NULL,
	time INTEGER NOT NULL,
	data TEXT NOT NULL,
	warning_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scrape_run_source ON scrape_run (source, time);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

type Run struct {
	// ID is assigned on push when empty.
	ID       string
	Source   string
	Time     time.Time
	Data     map[string]any
	Warnings int
}

func (s Store) Push(ctx context.Context, run Run) (string, error) {
	id := run.ID
	if id == "" {
		var err error
		id, err = random.String(16)
		if err != nil {
			return "", err
		}
	}

	data, err := json.Marshal(run.Data)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO scrape_run (id, source, time, data, warning_count) VALUES (?, ?, ?, ?, ?)`,
		id, run.Source, run.Time.Unix(), string(data), run.Warnings,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Pull returns every recorded run for a source, oldest first. Rows with
// corrupt payloads are skipped rather than failing the whole read.
func (s Store) Pull(ctx context.Context, source string) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source, time, data, warning_count FROM scrape_run WHERE source = ? ORDER BY time ASC`,
		source,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var unix int64
		var data string
		err := rows.Scan(&run.ID, &run.Source, &unix, &data, &run.Warnings)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal([]byte(data), &run.Data)
		if err != nil {
			slog.WarnContext(ctx, "failed to unmarshal stored run data", "id", run.ID, "err", err)
			continue
		}

		run.Time = time.Unix(unix, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
