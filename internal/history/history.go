// Package history keeps every measurement in a SQLite database so a mask can
// be replayed without recording again.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"noisemask/internal/stats"

	_ "modernc.org/sqlite"
)

// ErrEmpty is returned by Latest when nothing has been recorded yet.
var ErrEmpty = errors.New("no measurements recorded yet")

// Measurement is one analysed recording.
type Measurement struct {
	ID          int64
	RecordedAt  time.Time
	Source      string // Path of the analysed waveform
	Params      stats.Params
	DurationSec float64
	SampleRate  int
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at  INTEGER NOT NULL,
	source       TEXT    NOT NULL,
	mean_hz      REAL    NOT NULL,
	stddev_hz    REAL    NOT NULL,
	volume_db    REAL    NOT NULL,
	duration_sec REAL    NOT NULL DEFAULT 0,
	sample_rate  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_measurements_recorded_at ON measurements(recorded_at);
`

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// One writer; SQLite serialises anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores m and returns its new ID. A zero RecordedAt is set to now.
func (s *Store) Add(m Measurement) (int64, error) {
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO measurements (recorded_at, source, mean_hz, stddev_hz, volume_db, duration_sec, sample_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.RecordedAt.UnixNano(), m.Source,
		m.Params.MeanHz, m.Params.StdDevHz, m.Params.VolumeDB,
		m.DurationSec, m.SampleRate,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to store measurement: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to n measurements, newest first.
func (s *Store) Recent(n int) ([]Measurement, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT id, recorded_at, source, mean_hz, stddev_hz, volume_db, duration_sec, sample_rate
		 FROM measurements ORDER BY recorded_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Latest returns the newest measurement or ErrEmpty.
func (s *Store) Latest() (Measurement, error) {
	recent, err := s.Recent(1)
	if err != nil {
		return Measurement{}, err
	}
	if len(recent) == 0 {
		return Measurement{}, ErrEmpty
	}
	return recent[0], nil
}

func scan(rows *sql.Rows) (Measurement, error) {
	var (
		m  Measurement
		at int64
	)
	err := rows.Scan(&m.ID, &at, &m.Source,
		&m.Params.MeanHz, &m.Params.StdDevHz, &m.Params.VolumeDB,
		&m.DurationSec, &m.SampleRate)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to read measurement: %w", err)
	}
	m.RecordedAt = time.Unix(0, at)
	return m, nil
}
